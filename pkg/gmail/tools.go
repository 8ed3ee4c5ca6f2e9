package gmail

import (
	"fmt"
	"strings"

	"github.com/Protocol-Lattice/deskmate"
	"github.com/Protocol-Lattice/deskmate/pkg/tools"
	"github.com/tidwall/gjson"
)

// toolset builds the ten Gmail adapters. Each one has a fixed rendering
// template: the text the reasoning backend sees never depends on the backend
// itself, only on the payload.
func toolset(caller tools.Caller) []deskmate.Tool {
	return []deskmate.Tool{
		tools.NewMCPTool(caller, tools.MCPToolConfig{
			Spec: tools.Spec("list_messages",
				"Get Gmail messages with optional search query.",
				tools.ObjectSchema(map[string]any{
					"query":       tools.StringParam("Search query (e.g., 'from:user@example.com is:unread', 'subject:important')"),
					"max_results": tools.IntParam("Maximum number of messages to return (default: 10)"),
				})),
			OpName: "listing messages",
			Prepare: func(args map[string]any) map[string]any {
				return map[string]any{
					"query":       tools.StringArg(args, "query"),
					"max_results": tools.IntArg(args, "max_results", 10),
				}
			},
			Render: renderMessageList,
		}),
		tools.NewMCPTool(caller, tools.MCPToolConfig{
			Spec: tools.Spec("get_message",
				"Get detailed information about a specific Gmail message.",
				tools.ObjectSchema(map[string]any{
					"message_id": tools.StringParam("The ID of the message to retrieve"),
				}, "message_id")),
			OpName: "getting message",
			Render: renderMessage,
		}),
		tools.NewMCPTool(caller, tools.MCPToolConfig{
			Spec: tools.Spec("search_messages",
				"Search Gmail messages with advanced query syntax.",
				tools.ObjectSchema(map[string]any{
					"query":       tools.StringParam("Gmail search query (e.g., 'from:boss@company.com after:2023/01/01')"),
					"max_results": tools.IntParam("Maximum number of results (default: 10)"),
				}, "query")),
			OpName: "searching messages",
			Prepare: func(args map[string]any) map[string]any {
				return map[string]any{
					"query":       tools.StringArg(args, "query"),
					"max_results": tools.IntArg(args, "max_results", 10),
				}
			},
			Render: renderSearchResults,
		}),
		tools.NewMCPTool(caller, tools.MCPToolConfig{
			Spec: tools.Spec("send_message",
				"Send a new Gmail message.",
				tools.ObjectSchema(map[string]any{
					"to":      tools.StringParam("Recipient email address"),
					"subject": tools.StringParam("Email subject"),
					"body":    tools.StringParam("Email body content"),
					"cc":      tools.StringParam("CC recipients (optional)"),
					"bcc":     tools.StringParam("BCC recipients (optional)"),
				}, "to", "subject", "body")),
			OpName: "sending message",
			Prepare: func(args map[string]any) map[string]any {
				params := map[string]any{
					"to":      tools.StringArg(args, "to"),
					"subject": tools.StringArg(args, "subject"),
					"body":    tools.StringArg(args, "body"),
				}
				if cc := tools.StringArg(args, "cc"); cc != "" {
					params["cc"] = cc
				}
				if bcc := tools.StringArg(args, "bcc"); bcc != "" {
					params["bcc"] = bcc
				}
				return params
			},
			Render: func(args map[string]any, raw string) string {
				if !gjson.Get(raw, "success").Bool() {
					return "Failed to send email."
				}
				return fmt.Sprintf("✅ Email sent successfully!\nTo: %s\nSubject: %s\nMessage ID: %s",
					tools.StringArg(args, "to"),
					tools.StringArg(args, "subject"),
					field(gjson.Parse(raw), "messageId", "Unknown"))
			},
		}),
		tools.NewMCPTool(caller, tools.MCPToolConfig{
			Spec: tools.Spec("reply_to_message",
				"Reply to an existing Gmail message.",
				tools.ObjectSchema(map[string]any{
					"message_id": tools.StringParam("ID of the message to reply to"),
					"reply_body": tools.StringParam("Content of the reply"),
				}, "message_id", "reply_body")),
			OpName: "sending reply",
			Render: func(args map[string]any, raw string) string {
				if !gjson.Get(raw, "success").Bool() {
					return "Failed to send reply."
				}
				return fmt.Sprintf("✅ Reply sent successfully!\nOriginal Message ID: %s\nReply ID: %s",
					tools.StringArg(args, "message_id"),
					field(gjson.Parse(raw), "messageId", "Unknown"))
			},
		}),
		tools.NewMCPTool(caller, tools.MCPToolConfig{
			Spec: tools.Spec("mark_message_as_read",
				"Mark a Gmail message as read.",
				tools.ObjectSchema(map[string]any{
					"message_id": tools.StringParam("ID of the message to mark as read"),
				}, "message_id")),
			OpName: "marking message as read",
			Render: func(args map[string]any, raw string) string {
				if !gjson.Get(raw, "success").Bool() {
					return "Failed to mark message as read."
				}
				return fmt.Sprintf("✅ Message marked as read (ID: %s)", tools.StringArg(args, "message_id"))
			},
		}),
		tools.NewMCPTool(caller, tools.MCPToolConfig{
			Spec: tools.Spec("mark_message_as_unread",
				"Mark a Gmail message as unread.",
				tools.ObjectSchema(map[string]any{
					"message_id": tools.StringParam("ID of the message to mark as unread"),
				}, "message_id")),
			OpName: "marking message as unread",
			Render: func(args map[string]any, raw string) string {
				if !gjson.Get(raw, "success").Bool() {
					return "Failed to mark message as unread."
				}
				return fmt.Sprintf("✅ Message marked as unread (ID: %s)", tools.StringArg(args, "message_id"))
			},
		}),
		tools.NewMCPTool(caller, tools.MCPToolConfig{
			Spec: tools.Spec("add_label_to_message",
				"Add a label to a Gmail message.",
				tools.ObjectSchema(map[string]any{
					"message_id": tools.StringParam("ID of the message"),
					"label_id":   tools.StringParam("ID of the label to add (e.g., 'IMPORTANT', 'STARRED')"),
				}, "message_id", "label_id")),
			OpName: "adding label",
			Render: func(args map[string]any, raw string) string {
				if !gjson.Get(raw, "success").Bool() {
					return "Failed to add label."
				}
				return fmt.Sprintf("✅ Label '%s' added to message (ID: %s)\nCurrent labels: %s",
					tools.StringArg(args, "label_id"),
					tools.StringArg(args, "message_id"),
					labelNames(gjson.Get(raw, "labelIds"), 0))
			},
		}),
		tools.NewMCPTool(caller, tools.MCPToolConfig{
			Spec: tools.Spec("remove_label_from_message",
				"Remove a label from a Gmail message.",
				tools.ObjectSchema(map[string]any{
					"message_id": tools.StringParam("ID of the message"),
					"label_id":   tools.StringParam("ID of the label to remove"),
				}, "message_id", "label_id")),
			OpName: "removing label",
			Render: func(args map[string]any, raw string) string {
				if !gjson.Get(raw, "success").Bool() {
					return "Failed to remove label."
				}
				return fmt.Sprintf("✅ Label '%s' removed from message (ID: %s)\nCurrent labels: %s",
					tools.StringArg(args, "label_id"),
					tools.StringArg(args, "message_id"),
					labelNames(gjson.Get(raw, "labelIds"), 0))
			},
		}),
		tools.NewMCPTool(caller, tools.MCPToolConfig{
			Spec: tools.Spec("list_labels",
				"Get all available Gmail labels.",
				tools.ObjectSchema(map[string]any{})),
			OpName: "listing labels",
			Render: renderLabels,
		}),
	}
}

func renderMessageList(args map[string]any, raw string) string {
	suffix := ""
	if query := tools.StringArg(args, "query"); query != "" {
		suffix = " for query: " + query
	}

	messages := gjson.Get(raw, "messages").Array()
	if len(messages) == 0 {
		return fmt.Sprintf("No messages found%s.", suffix)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d messages%s:\n\n", len(messages), suffix)
	for i, msg := range messages {
		fmt.Fprintf(&b, "%d. From: %s\n", i+1, clip(field(msg, "from", "Unknown"), 30))
		fmt.Fprintf(&b, "   Subject: %s\n", clip(field(msg, "subject", "No Subject"), 50))
		fmt.Fprintf(&b, "   Date: %s\n", clip(field(msg, "date", "Unknown"), 20))
		fmt.Fprintf(&b, "   Labels: %s\n", labelNames(msg.Get("labelIds"), 3))
		fmt.Fprintf(&b, "   ID: %s\n\n", field(msg, "id", "Unknown"))
	}
	return b.String()
}

func renderMessage(_ map[string]any, raw string) string {
	message := gjson.Get(raw, "message")
	if !message.Exists() || len(message.Map()) == 0 {
		return "Message not found."
	}

	var b strings.Builder
	b.WriteString("📧 Message Details:\n")
	fmt.Fprintf(&b, "From: %s\n", field(message, "from", "Unknown"))
	fmt.Fprintf(&b, "To: %s\n", field(message, "to", "Unknown"))
	fmt.Fprintf(&b, "Subject: %s\n", field(message, "subject", "No Subject"))
	fmt.Fprintf(&b, "Date: %s\n", field(message, "date", "Unknown"))
	fmt.Fprintf(&b, "Labels: %s\n", labelNames(message.Get("labelIds"), 0))

	if cc := message.Get("cc").String(); cc != "" {
		fmt.Fprintf(&b, "CC: %s\n", cc)
	}

	if body := message.Get("body").String(); body != "" {
		fmt.Fprintf(&b, "\n📝 Body:\n%s", clip(body, 1000))
		if len([]rune(body)) > 1000 {
			b.WriteString("... (truncated)")
		}
	}

	attachments := message.Get("attachments").Array()
	if len(attachments) > 0 {
		fmt.Fprintf(&b, "\n\n📎 Attachments (%d):\n", len(attachments))
		for _, att := range attachments {
			fmt.Fprintf(&b, "  • %s (%s)\n",
				field(att, "filename", "Unknown"),
				field(att, "mimeType", "Unknown type"))
		}
	}
	return b.String()
}

func renderSearchResults(args map[string]any, raw string) string {
	query := tools.StringArg(args, "query")
	messages := gjson.Get(raw, "messages").Array()
	if len(messages) == 0 {
		return fmt.Sprintf("No messages found for search query: %s", query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔍 Search Results (%d messages) for: %s\n\n", len(messages), query)
	for i, msg := range messages {
		fmt.Fprintf(&b, "%d. %s\n", i+1, field(msg, "subject", "No Subject"))
		fmt.Fprintf(&b, "   From: %s\n", field(msg, "from", "Unknown"))
		fmt.Fprintf(&b, "   Date: %s\n", field(msg, "date", "Unknown"))
		fmt.Fprintf(&b, "   ID: %s\n\n", field(msg, "id", "Unknown"))
	}
	return b.String()
}

func renderLabels(_ map[string]any, raw string) string {
	labels := gjson.Get(raw, "labels").Array()
	if len(labels) == 0 {
		return "No labels found."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📂 Available Gmail Labels (%d):\n\n", len(labels))
	for _, label := range labels {
		fmt.Fprintf(&b, "• %s (ID: %s)\n", field(label, "name", "Unknown"), field(label, "id", "Unknown"))
		fmt.Fprintf(&b, "  Type: %s | Total: %d | Unread: %d\n\n",
			field(label, "type", "Unknown"),
			label.Get("messagesTotal").Int(),
			label.Get("messagesUnread").Int())
	}
	return b.String()
}

// field reads a string field with a fallback for absent keys.
func field(r gjson.Result, key, fallback string) string {
	v := r.Get(key)
	if !v.Exists() {
		return fallback
	}
	return v.String()
}

// clip truncates to at most n characters, counting runes the way a display
// width would.
func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// labelNames joins label ids, keeping at most max entries when max > 0.
func labelNames(r gjson.Result, max int) string {
	items := r.Array()
	if max > 0 && len(items) > max {
		items = items[:max]
	}
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.String())
	}
	return strings.Join(names, ", ")
}
