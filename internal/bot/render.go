package bot

import (
	"fmt"
	"html"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"taskboard/internal/filter"
	"taskboard/internal/model"
)

// iconSet is the theme-dependent rendering palette.
type iconSet struct {
	priority map[model.Priority]string
	column   map[model.Status]string
}

var lightIcons = iconSet{
	priority: map[model.Priority]string{
		model.PriorityLow:    "🟢",
		model.PriorityMedium: "🟡",
		model.PriorityHigh:   "🔴",
	},
	column: map[model.Status]string{
		model.StatusTodo:       "📋",
		model.StatusInProgress: "🚧",
		model.StatusCompleted:  "✅",
	},
}

var darkIcons = iconSet{
	priority: map[model.Priority]string{
		model.PriorityLow:    "🟩",
		model.PriorityMedium: "🟨",
		model.PriorityHigh:   "🟥",
	},
	column: map[model.Status]string{
		model.StatusTodo:       "🗒",
		model.StatusInProgress: "🔨",
		model.StatusCompleted:  "☑️",
	},
}

var columnTitles = map[model.Status]string{
	model.StatusTodo:       "To do",
	model.StatusInProgress: "In progress",
	model.StatusCompleted:  "Completed",
}

func (b *Bot) icons() iconSet {
	if b.app.Theme() == model.ThemeDark {
		return darkIcons
	}
	return lightIcons
}

func (b *Bot) handleBoard(msg *tgbotapi.Message) error {
	return b.sendBoard(msg.Chat.ID)
}

func (b *Bot) sendBoard(chatID int64) error {
	icons := b.icons()
	now := time.Now()

	refs := make(map[int]string)
	n := 0

	var builder strings.Builder
	builder.WriteString("🗂 <b>Board</b>\n\n")
	for _, status := range model.Statuses {
		tasks := b.app.Tasks.ListByStatus(status)
		builder.WriteString(fmt.Sprintf("%s <b>%s</b>\n", icons.column[status], columnTitles[status]))
		if len(tasks) == 0 {
			builder.WriteString("— empty\n")
		}
		for _, task := range tasks {
			n++
			refs[n] = task.ID
			builder.WriteString(b.renderTaskLine(n, task, icons, now))
		}
		builder.WriteByte('\n')
	}
	builder.WriteString("Use /move, /reorder, /edit, /complete or /delete with the numbers above.")

	b.setListing(chatID, refs)
	return b.sendText(chatID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleListTasks(msg *tgbotapi.Message) error {
	criteria := parseCriteria(msg.CommandArguments())
	return b.sendFilteredList(msg.Chat.ID, criteria)
}

func (b *Bot) handleFind(msg *tgbotapi.Message) error {
	search := strings.TrimSpace(msg.CommandArguments())
	if search == "" {
		return b.sendText(msg.Chat.ID, "Usage: /find <text>")
	}
	return b.sendFilteredList(msg.Chat.ID, filter.Criteria{Search: search})
}

// parseCriteria reads "key=value" tokens (category, priority, due); the
// remaining words become the search text.
func parseCriteria(args string) filter.Criteria {
	var criteria filter.Criteria
	var words []string
	for _, token := range strings.Fields(args) {
		key, value, found := strings.Cut(token, "=")
		if !found {
			words = append(words, token)
			continue
		}
		switch strings.ToLower(key) {
		case "category":
			criteria.Category = strings.ToLower(value)
		case "priority":
			criteria.Priority = strings.ToLower(value)
		case "due":
			criteria.DueBucket = filter.DueBucket(strings.ToLower(value))
		default:
			words = append(words, token)
		}
	}
	criteria.Search = strings.Join(words, " ")
	return criteria
}

func (b *Bot) sendFilteredList(chatID int64, criteria filter.Criteria) error {
	tasks := b.app.Tasks.Query(criteria)
	if len(tasks) == 0 {
		b.setListing(chatID, nil)
		return b.sendText(chatID, "No tasks match. Add one with /newtask or loosen the filters.")
	}

	icons := b.icons()
	now := time.Now()
	refs := make(map[int]string)

	var builder strings.Builder
	builder.WriteString("📋 <b>Tasks</b>\n")

	var buttons [][]tgbotapi.InlineKeyboardButton
	for i, task := range tasks {
		n := i + 1
		refs[n] = task.ID
		builder.WriteString(b.renderTaskLine(n, task, icons, now))

		buttons = append(buttons, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✅ %d · %s", n, shortTitle(task.Title, 18)), cbCompletePrefix+task.ID),
			tgbotapi.NewInlineKeyboardButtonData("✏️", cbEditPrefix+task.ID),
			tgbotapi.NewInlineKeyboardButtonData("🗑", cbDeletePrefix+task.ID),
		})
	}

	b.setListing(chatID, refs)

	out := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	out.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(out)
	return err
}

func (b *Bot) renderTaskLine(n int, task model.Task, icons iconSet, now time.Time) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d. %s %s", n, icons.priority[task.Priority], escape(displayTitle(task))))
	sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", escape(b.displayCategory(task))))
	if task.DueDate != nil {
		due := task.DueDate.In(now.Location())
		if due.Before(now) {
			sb.WriteString(fmt.Sprintf(" — ⚠️ was due %s", due.Format(dueDateLayout)))
		} else {
			sb.WriteString(fmt.Sprintf(" — due %s", due.Format(dueDateLayout)))
		}
	}
	if len(task.Attachments) > 0 {
		sb.WriteString(fmt.Sprintf(" 📎%d", len(task.Attachments)))
	}
	sb.WriteByte('\n')
	return sb.String()
}

func (b *Bot) renderTaskSummary(task model.Task, header string) string {
	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteByte('\n')
	sb.WriteString(fmt.Sprintf("• <b>Title:</b> %s\n", escape(displayTitle(task))))
	if task.Description != "" {
		sb.WriteString(fmt.Sprintf("• <b>Description:</b> %s\n", escape(task.Description)))
	}
	sb.WriteString(fmt.Sprintf("• <b>Category:</b> %s\n", escape(b.displayCategory(task))))
	sb.WriteString(fmt.Sprintf("• <b>Priority:</b> %s\n", task.Priority))
	if task.DueDate != nil {
		sb.WriteString(fmt.Sprintf("• <b>Due:</b> %s\n", task.DueDate.Format(dueDateLayout)))
	}
	if task.Recurrence != "" && task.Recurrence != "none" {
		sb.WriteString(fmt.Sprintf("• <b>Recurrence:</b> %s\n", escape(task.Recurrence)))
	}
	if len(task.Attachments) > 0 {
		sb.WriteString(fmt.Sprintf("• <b>Attachments:</b> %d\n", len(task.Attachments)))
	}
	sb.WriteString(fmt.Sprintf("• <b>Column:</b> %s", columnTitles[task.Status]))
	return sb.String()
}

func (b *Bot) handleCalendar(msg *tgbotapi.Message) error {
	now := time.Now()
	events := b.app.Calendar.EventsInMonth(now)
	if len(events) == 0 {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("🗓 Nothing due in %s.", now.Format("January 2006")))
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("🗓 <b>%s</b>\n", now.Format("January 2006")))
	lastDay := 0
	for _, ev := range events {
		start := ev.Start.In(now.Location())
		if start.Day() != lastDay {
			builder.WriteString(fmt.Sprintf("\n<b>%s</b>\n", start.Format("Mon 02")))
			lastDay = start.Day()
		}
		builder.WriteString(fmt.Sprintf("%s %s — %s\n", colorSquare(ev.Color), start.Format("15:04"), escape(ev.Title)))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) sendAgenda(chatID int64) error {
	today := b.app.Tasks.Query(filter.Criteria{DueBucket: filter.DueToday})
	overdue := b.app.Tasks.Query(filter.Criteria{DueBucket: filter.DueOverdue})

	if len(today) == 0 && len(overdue) == 0 {
		return b.sendText(chatID, "🗓 Nothing due today. Enjoy!")
	}

	icons := b.icons()
	now := time.Now()

	var builder strings.Builder
	builder.WriteString("🗓 <b>Today's agenda</b>\n")
	n := 0
	refs := make(map[int]string)
	if len(overdue) > 0 {
		builder.WriteString("\n⚠️ <b>Overdue</b>\n")
		for _, task := range overdue {
			n++
			refs[n] = task.ID
			builder.WriteString(b.renderTaskLine(n, task, icons, now))
		}
	}
	if len(today) > 0 {
		builder.WriteString("\n⏰ <b>Due today</b>\n")
		for _, task := range today {
			n++
			refs[n] = task.ID
			builder.WriteString(b.renderTaskLine(n, task, icons, now))
		}
	}

	b.setListing(chatID, refs)
	return b.sendText(chatID, strings.TrimSpace(builder.String()))
}

// colorSquare maps the calendar color tokens to an emoji swatch.
func colorSquare(color string) string {
	switch color {
	case model.PriorityColor(model.PriorityHigh):
		return "🟥"
	case model.PriorityColor(model.PriorityMedium):
		return "🟨"
	default:
		return "🟩"
	}
}

// displayCategory resolves the sentinel: empty names and names whose
// category record no longer exists both render as uncategorized.
func (b *Bot) displayCategory(task model.Task) string {
	if task.Category == "" {
		return model.Uncategorized
	}
	if _, err := b.app.Categories.Find(task.Category); err != nil {
		return model.Uncategorized
	}
	return task.Category
}

func displayTitle(task model.Task) string {
	if strings.TrimSpace(task.Title) == "" {
		return "Untitled Task"
	}
	return task.Title
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	if clean == "" {
		clean = "Untitled Task"
	}
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func escape(s string) string {
	return html.EscapeString(s)
}

func (b *Bot) setListing(chatID int64, refs map[int]string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listings[chatID] = refs
}

func (b *Bot) categoryKeyboard() tgbotapi.ReplyKeyboardMarkup {
	categories := b.app.Categories.List()
	var rows [][]tgbotapi.KeyboardButton
	var row []tgbotapi.KeyboardButton
	for _, cat := range categories {
		row = append(row, tgbotapi.NewKeyboardButton(cat.Name))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(btnSkip),
		tgbotapi.NewKeyboardButton(btnCancelDialog),
	))
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func priorityKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(string(model.PriorityLow)),
			tgbotapi.NewKeyboardButton(string(model.PriorityMedium)),
			tgbotapi.NewKeyboardButton(string(model.PriorityHigh)),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func dueDateKeyboard(mode conversationMode) tgbotapi.ReplyKeyboardMarkup {
	row := []tgbotapi.KeyboardButton{tgbotapi.NewKeyboardButton(btnSkip)}
	if mode == modeEdit {
		row = append(row, tgbotapi.NewKeyboardButton(btnClear))
	}
	row = append(row, tgbotapi.NewKeyboardButton(btnCancelDialog))
	kb := tgbotapi.NewReplyKeyboard(row)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func recurrenceKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("none"),
			tgbotapi.NewKeyboardButton("daily"),
			tgbotapi.NewKeyboardButton("weekly"),
			tgbotapi.NewKeyboardButton("monthly"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func doneKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnDone),
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}
