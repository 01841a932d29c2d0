package synth

import (
	"fmt"
	"sort"
	"strings"
)

// Generator renders the body of one node's script function. Generators are
// pure: the same node always yields the same fragment. Fragments must only
// use sanctioned runtime services; the guardrail scan rejects anything else.
type Generator func(n Node) string

// generators maps a function id to its fragment generator. Functions without
// an entry render through stubGenerator.
var generators = map[string]Generator{
	"gmail.search_messages": genGmailSearch,
	"gmail.send_email":      genGmailSend,
	"gmail.auto_reply":      genGmailAutoReply,
	"gmail.add_label":       genGmailAddLabel,
	"sheets.append_row":     genSheetsAppend,
	"sheets.read_range":     genSheetsRead,
	"sheets.update_cell":    genSheetsUpdate,
	"drive.save_attachment": genDriveSaveAttachment,
	"drive.list_files":      genDriveListFiles,
	"calendar.create_event": genCalendarCreate,
	"calendar.list_events":  genCalendarList,
	"slack.post_webhook":    genSlackWebhook,
}

// RegisteredFunctions returns the function ids with dedicated generators,
// sorted for stable output.
func RegisteredFunctions() []string {
	ids := make([]string, 0, len(generators))
	for id := range generators {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// fragmentFor resolves the generator for a node, falling back to the stub.
func fragmentFor(n Node) string {
	if gen, ok := generators[n.FunctionID]; ok {
		return gen(n)
	}
	return stubGenerator(n)
}

// param returns a node parameter or a fallback, escaped for embedding in a
// double-quoted script literal.
func param(n Node, key, fallback string) string {
	value, ok := n.Parameters[key]
	if !ok || value == "" {
		value = fallback
	}
	return escapeJS(value)
}

func escapeJS(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}

// stubGenerator is the fallback for functions without a registered
// generator. It logs and passes input through untouched.
func stubGenerator(n Node) string {
	return fmt.Sprintf(`  Logger.log("step %s (%s) has no generator; passing input through");
  return input;`, escapeJS(n.ID), escapeJS(n.FunctionID))
}

func genGmailSearch(n Node) string {
	return fmt.Sprintf(`  var threads = GmailApp.search("%s", 0, %s);
  var messages = [];
  for (var i = 0; i < threads.length; i++) {
    var msgs = threads[i].getMessages();
    messages.push(msgs[msgs.length - 1]);
  }
  return messages;`, param(n, "query", "is:unread"), param(n, "max_results", "50"))
}

func genGmailSend(n Node) string {
	return fmt.Sprintf(`  GmailApp.sendEmail("%s", "%s", "%s");
  return input;`, param(n, "to", "{{to}}"), param(n, "subject", "Automated message"), param(n, "body", ""))
}

func genGmailAutoReply(n Node) string {
	return fmt.Sprintf(`  var threads = GmailApp.search("%s");
  for (var i = 0; i < threads.length; i++) {
    threads[i].reply("%s");
  }
  return threads;`, param(n, "query", "is:unread"), param(n, "reply_body", "Thanks, we received your message."))
}

func genGmailAddLabel(n Node) string {
	return fmt.Sprintf(`  var label = GmailApp.getUserLabelByName("%s") || GmailApp.createLabel("%s");
  var threads = GmailApp.search("%s");
  for (var i = 0; i < threads.length; i++) {
    threads[i].addLabel(label);
  }
  return threads;`, param(n, "label", "Automated"), param(n, "label", "Automated"), param(n, "query", "is:unread"))
}

func genSheetsAppend(n Node) string {
	return fmt.Sprintf(`  var sheet = SpreadsheetApp.openById("%s").getSheetByName("%s");
  var rows = Array.isArray(input) ? input : [input];
  for (var i = 0; i < rows.length; i++) {
    var item = rows[i];
    if (item && typeof item.getSubject === "function") {
      sheet.appendRow([new Date(), item.getFrom(), item.getSubject()]);
    } else {
      sheet.appendRow([new Date(), String(item)]);
    }
  }
  return input;`, param(n, "spreadsheet_id", "{{spreadsheet_id}}"), param(n, "sheet_name", "Sheet1"))
}

func genSheetsRead(n Node) string {
	return fmt.Sprintf(`  var sheet = SpreadsheetApp.openById("%s");
  return sheet.getRange("%s").getValues();`, param(n, "spreadsheet_id", "{{spreadsheet_id}}"), param(n, "range", "A1:B10"))
}

func genSheetsUpdate(n Node) string {
	return fmt.Sprintf(`  var sheet = SpreadsheetApp.openById("%s");
  sheet.getRange("%s").setValue("%s");
  return input;`, param(n, "spreadsheet_id", "{{spreadsheet_id}}"), param(n, "cell", "A1"), param(n, "value", ""))
}

func genDriveSaveAttachment(n Node) string {
	return fmt.Sprintf(`  var folders = DriveApp.getFoldersByName("%s");
  var folder = folders.hasNext() ? folders.next() : DriveApp.createFolder("%s");
  var messages = Array.isArray(input) ? input : [];
  for (var i = 0; i < messages.length; i++) {
    var attachments = messages[i].getAttachments();
    for (var j = 0; j < attachments.length; j++) {
      folder.createFile(attachments[j]);
    }
  }
  return input;`, param(n, "folder_name", "Automation"), param(n, "folder_name", "Automation"))
}

func genDriveListFiles(n Node) string {
	return fmt.Sprintf(`  var folders = DriveApp.getFoldersByName("%s");
  var names = [];
  if (folders.hasNext()) {
    var files = folders.next().getFiles();
    while (files.hasNext()) {
      names.push(files.next().getName());
    }
  }
  return names;`, param(n, "folder_name", "Automation"))
}

func genCalendarCreate(n Node) string {
	return fmt.Sprintf(`  var start = new Date("%s");
  if (isNaN(start.getTime())) {
    start = new Date();
  }
  var end = new Date(start.getTime() + %s * 60000);
  CalendarApp.getDefaultCalendar().createEvent("%s", start, end);
  return input;`, param(n, "start", ""), param(n, "duration_minutes", "30"), param(n, "title", "Automated event"))
}

func genCalendarList(n Node) string {
	return fmt.Sprintf(`  var now = new Date();
  var until = new Date(now.getTime() + %s * 86400000);
  return CalendarApp.getDefaultCalendar().getEvents(now, until);`, param(n, "window_days", "7"))
}

// genSlackWebhook is the only generator that reaches outside the runtime,
// through the sanctioned UrlFetchApp.fetch call.
func genSlackWebhook(n Node) string {
	return fmt.Sprintf(`  var payload = JSON.stringify({ text: "%s" });
  UrlFetchApp.fetch("%s", {
    method: "post",
    contentType: "application/json",
    payload: payload,
  });
  return input;`, param(n, "text", "Workflow update"), param(n, "webhook_url", "{{webhook_url}}"))
}
