package todo

import (
	"fmt"
	"strings"

	"github.com/Protocol-Lattice/deskmate"
	"github.com/Protocol-Lattice/deskmate/pkg/tools"
	"github.com/tidwall/gjson"
)

// toolset builds the nine To-Do adapters with fixed rendering templates.
func toolset(caller tools.Caller) []deskmate.Tool {
	return []deskmate.Tool{
		tools.NewMCPTool(caller, tools.MCPToolConfig{
			Spec: tools.Spec("list_task_lists",
				"Get all Microsoft To-Do task lists for the user.",
				tools.ObjectSchema(map[string]any{})),
			OpName: "listing task lists",
			Render: renderTaskLists,
		}),
		tools.NewMCPTool(caller, tools.MCPToolConfig{
			Spec: tools.Spec("create_task_list",
				"Create a new task list in Microsoft To-Do.",
				tools.ObjectSchema(map[string]any{
					"name": tools.StringParam("The name for the new task list"),
				}, "name")),
			OpName: "creating task list",
			Render: func(_ map[string]any, raw string) string {
				if !gjson.Get(raw, "success").Bool() {
					return "Failed to create task list"
				}
				list := gjson.Get(raw, "taskList")
				return fmt.Sprintf("✅ Successfully created task list '%s' (ID: %s)",
					list.Get("name").String(), list.Get("id").String())
			},
		}),
		tools.NewMCPTool(caller, tools.MCPToolConfig{
			Spec: tools.Spec("delete_task_list",
				"Delete a task list from Microsoft To-Do.",
				tools.ObjectSchema(map[string]any{
					"list_id": tools.StringParam("The ID of the task list to delete"),
				}, "list_id")),
			OpName: "deleting task list",
			Render: func(args map[string]any, raw string) string {
				if !gjson.Get(raw, "success").Bool() {
					return "Failed to delete task list"
				}
				return fmt.Sprintf("✅ Successfully deleted task list (ID: %s)", tools.StringArg(args, "list_id"))
			},
		}),
		tools.NewMCPTool(caller, tools.MCPToolConfig{
			Spec: tools.Spec("list_tasks",
				"Get all tasks in a specific task list.",
				tools.ObjectSchema(map[string]any{
					"list_id": tools.StringParam("The ID of the task list"),
				}, "list_id")),
			OpName: "listing tasks",
			Render: renderTasks,
		}),
		tools.NewMCPTool(caller, tools.MCPToolConfig{
			Spec: tools.Spec("create_task",
				"Create a new task in a task list.",
				tools.ObjectSchema(map[string]any{
					"list_id":     tools.StringParam("The ID of the task list"),
					"title":       tools.StringParam("The title of the task"),
					"description": tools.StringParam("The description of the task (optional)"),
					"due_date":    tools.StringParam("The due date in YYYY-MM-DD format (optional)"),
				}, "list_id", "title")),
			OpName: "creating task",
			Prepare: func(args map[string]any) map[string]any {
				return map[string]any{
					"list_id":     tools.StringArg(args, "list_id"),
					"title":       tools.StringArg(args, "title"),
					"description": tools.StringArg(args, "description"),
					"due_date":    tools.StringArg(args, "due_date"),
				}
			},
			Render: func(_ map[string]any, raw string) string {
				if !gjson.Get(raw, "success").Bool() {
					return "Failed to create task"
				}
				task := gjson.Get(raw, "task")
				due := ""
				if d := task.Get("dueDate").String(); d != "" {
					due = fmt.Sprintf(" (Due: %s)", d)
				}
				return fmt.Sprintf("✅ Successfully created task '%s'%s (ID: %s)",
					task.Get("title").String(), due, task.Get("id").String())
			},
		}),
		tools.NewMCPTool(caller, tools.MCPToolConfig{
			Spec: tools.Spec("update_task",
				"Update an existing task in a task list.",
				tools.ObjectSchema(map[string]any{
					"list_id":     tools.StringParam("The ID of the task list"),
					"task_id":     tools.StringParam("The ID of the task to update"),
					"title":       tools.StringParam("New title for the task (optional)"),
					"description": tools.StringParam("New description for the task (optional)"),
					"due_date":    tools.StringParam("New due date in YYYY-MM-DD format (optional, empty string to remove)"),
					"status":      tools.StringParam("New status - \"notStarted\" or \"completed\" (optional)"),
				}, "list_id", "task_id")),
			OpName: "updating task",
			// Only forward the fields the backend actually set: an absent
			// field keeps its value, while an empty due_date clears it.
			Prepare: func(args map[string]any) map[string]any {
				params := map[string]any{
					"list_id": tools.StringArg(args, "list_id"),
					"task_id": tools.StringArg(args, "task_id"),
				}
				for _, key := range []string{"title", "description", "due_date", "status"} {
					if v, ok := args[key]; ok {
						params[key] = v
					}
				}
				return params
			},
			Render: func(_ map[string]any, raw string) string {
				if !gjson.Get(raw, "success").Bool() {
					return "Failed to update task"
				}
				task := gjson.Get(raw, "task")
				return fmt.Sprintf("✅ Successfully updated task '%s' (ID: %s)",
					task.Get("title").String(), task.Get("id").String())
			},
		}),
		tools.NewMCPTool(caller, tools.MCPToolConfig{
			Spec: tools.Spec("complete_task",
				"Mark a task as completed.",
				tools.ObjectSchema(map[string]any{
					"list_id": tools.StringParam("The ID of the task list"),
					"task_id": tools.StringParam("The ID of the task to complete"),
				}, "list_id", "task_id")),
			OpName: "completing task",
			Render: func(_ map[string]any, raw string) string {
				if !gjson.Get(raw, "success").Bool() {
					return "Failed to complete task"
				}
				task := gjson.Get(raw, "task")
				return fmt.Sprintf("✅ Successfully completed task '%s' (ID: %s)",
					task.Get("title").String(), task.Get("id").String())
			},
		}),
		tools.NewMCPTool(caller, tools.MCPToolConfig{
			Spec: tools.Spec("uncomplete_task",
				"Mark a completed task as not started.",
				tools.ObjectSchema(map[string]any{
					"list_id": tools.StringParam("The ID of the task list"),
					"task_id": tools.StringParam("The ID of the task to mark as not started"),
				}, "list_id", "task_id")),
			OpName: "marking task as not started",
			Render: func(_ map[string]any, raw string) string {
				if !gjson.Get(raw, "success").Bool() {
					return "Failed to mark task as not started"
				}
				task := gjson.Get(raw, "task")
				return fmt.Sprintf("✅ Successfully marked task '%s' as not started (ID: %s)",
					task.Get("title").String(), task.Get("id").String())
			},
		}),
		tools.NewMCPTool(caller, tools.MCPToolConfig{
			Spec: tools.Spec("delete_task",
				"Delete a task from a task list.",
				tools.ObjectSchema(map[string]any{
					"list_id": tools.StringParam("The ID of the task list"),
					"task_id": tools.StringParam("The ID of the task to delete"),
				}, "list_id", "task_id")),
			OpName: "deleting task",
			Render: func(args map[string]any, raw string) string {
				if !gjson.Get(raw, "success").Bool() {
					return "Failed to delete task"
				}
				return fmt.Sprintf("✅ Successfully deleted task (ID: %s)", tools.StringArg(args, "task_id"))
			},
		}),
	}
}

func renderTaskLists(_ map[string]any, raw string) string {
	lists := gjson.Get(raw, "taskLists").Array()
	if len(lists) == 0 {
		return "No task lists found."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d task lists:\n", len(lists))
	for i, list := range lists {
		shared := ""
		if list.Get("isShared").Bool() {
			shared = " (Shared)"
		}
		fmt.Fprintf(&b, "%d. %s (ID: %s)%s\n", i+1,
			list.Get("name").String(), list.Get("id").String(), shared)
	}
	return b.String()
}

func renderTasks(args map[string]any, raw string) string {
	tasks := gjson.Get(raw, "tasks").Array()
	if len(tasks) == 0 {
		return fmt.Sprintf("No tasks found in this list (ID: %s)", tools.StringArg(args, "list_id"))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d tasks:\n", len(tasks))
	for i, task := range tasks {
		icon := "⏳"
		if task.Get("status").String() == "completed" {
			icon = "✅"
		}
		due := ""
		if d := task.Get("dueDate").String(); d != "" {
			due = fmt.Sprintf(" (Due: %s)", d)
		}
		desc := ""
		if d := task.Get("description").String(); d != "" {
			desc = fmt.Sprintf(" - %s...", clipRunes(d, 50))
		}
		fmt.Fprintf(&b, "%d. %s %s%s%s (ID: %s)\n", i+1, icon,
			task.Get("title").String(), due, desc, task.Get("id").String())
	}
	return b.String()
}

func clipRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
