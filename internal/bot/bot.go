// Package bot is the presentation layer: it turns Telegram messages into
// repository intents and renders board state back into chat messages.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"taskboard/internal/app"
	"taskboard/internal/config"
	"taskboard/internal/model"
	"taskboard/internal/repository"
)

const (
	cbCompletePrefix = "complete:"
	cbDeletePrefix   = "delete:"
	cbEditPrefix     = "edit:"
)

const (
	btnSkip         = "⏭ Skip"
	btnClear        = "✖ Clear"
	btnDone         = "✅ Done"
	btnConfirm      = "✅ Confirm"
	btnCancel       = "↩️ Cancel"
	btnCancelDialog = "⏪ Cancel input"
)

type confirmationKind int

const (
	confirmDeleteTask confirmationKind = iota
	confirmDeleteCategory
)

type confirmationRequest struct {
	kind   confirmationKind
	taskID string
	name   string // category name for confirmDeleteCategory
}

// Bot aggregates the Telegram API with the application context.
type Bot struct {
	api *tgbotapi.BotAPI
	app *app.App
	cfg *config.Config

	mu            sync.Mutex
	conversations map[int64]*conversationState
	confirmations map[int64]confirmationRequest
	listings      map[int64]map[int]string // chat -> listing number -> task ID
	chats         map[int64]struct{}       // chats that get reminders
}

func New(token string, application *app.App, cfg *config.Config) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Infof("bot authorized on account %s", api.Self.UserName)

	return &Bot{
		api:           api,
		app:           application,
		cfg:           cfg,
		conversations: make(map[int64]*conversationState),
		confirmations: make(map[int64]confirmationRequest),
		listings:      make(map[int64]map[int]string),
		chats:         make(map[int64]struct{}),
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(update.CallbackQuery); err != nil {
				log.Errorf("handle callback: %v", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(update.Message); err != nil {
				log.Errorf("handle message: %v", err)
			}
		}
	}

	return nil
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}
	b.rememberChat(msg.Chat.ID)

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.Chat.ID)
		b.clearConfirmation(msg.Chat.ID)
		return b.sendText(msg.Chat.ID, "⏪ Input cancelled.")
	}

	if msg.IsCommand() {
		log.Infof("command from %d: /%s %s", msg.From.ID, msg.Command(), msg.CommandArguments())
		return b.handleCommand(msg)
	}

	if pending, ok := b.getConfirmation(msg.Chat.ID); ok {
		return b.handleConfirmationResponse(msg, pending)
	}

	if state := b.getConversation(msg.Chat.ID); state != nil {
		return b.handleConversation(msg, state)
	}

	return b.sendText(msg.Chat.ID, "I didn't get that. Use /newtask to add a task or /help for the command list.")
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(msg)
	case "help":
		return b.handleHelp(msg)
	case "newtask":
		return b.startCreateConversation(msg.Chat.ID)
	case "edit":
		return b.handleEdit(msg)
	case "tasks":
		return b.handleListTasks(msg)
	case "find":
		return b.handleFind(msg)
	case "board":
		return b.handleBoard(msg)
	case "move":
		return b.handleMove(msg)
	case "reorder":
		return b.handleReorder(msg)
	case "delete":
		return b.handleDeleteTask(msg)
	case "complete":
		return b.handleComplete(msg)
	case "categories":
		return b.handleCategories(msg)
	case "newcategory":
		return b.handleNewCategory(msg)
	case "delcategory":
		return b.handleDeleteCategory(msg)
	case "calendar":
		return b.handleCalendar(msg)
	case "theme":
		return b.handleTheme(msg)
	case "cancel":
		b.clearConversation(msg.Chat.ID)
		b.clearConfirmation(msg.Chat.ID)
		return b.sendText(msg.Chat.ID, "⏪ Input cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf(
		"👋 Hi, %s!\n<b>I keep your kanban board: todo / in progress / completed.</b>\n\nCommands:\n"+
			"• /newtask — add a task step by step\n"+
			"• /board — show the board\n"+
			"• /tasks [filters] — list tasks, e.g. <code>/tasks priority=high due=today</code>\n"+
			"• /help — all commands",
		escape(name),
	)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "ℹ️ <b>Commands</b>\n" +
		"• /newtask — add a task step by step\n" +
		"• /edit &lt;n&gt; — edit task n from the last listing\n" +
		"• /board — show the kanban board\n" +
		"• /tasks [category=…] [priority=…] [due=…] [search words] — filtered list\n" +
		"   due buckets: today, tomorrow, next7, overdue, noduedate\n" +
		"• /find &lt;text&gt; — search titles and descriptions\n" +
		"• /move &lt;n&gt; &lt;todo|inProgress|completed&gt; — change column\n" +
		"• /reorder &lt;status&gt; &lt;n&gt; &lt;n&gt; … — commit a column's order\n" +
		"• /complete &lt;n&gt; — mark task n completed\n" +
		"• /delete &lt;n&gt; — delete task n (asks for confirmation)\n" +
		"• /categories — list categories\n" +
		"• /newcategory &lt;name&gt; [#color] — add a category\n" +
		"• /delcategory &lt;name&gt; — delete a category (tasks go to uncategorized)\n" +
		"• /calendar — due dates this month\n" +
		"• /theme — toggle light/dark rendering\n" +
		"• /cancel — abort the current input"
	text += fmt.Sprintf("\n\nI check due dates every %s and warn %s ahead.",
		b.cfg.ReminderInterval, b.cfg.ReminderLookahead)
	return b.sendText(msg.Chat.ID, text)
}

// resolveTaskRef maps a listing number from the last rendered list in this
// chat back to a task ID.
func (b *Bot) resolveTaskRef(chatID int64, arg string) (string, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return "", false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	id, ok := b.listings[chatID][n]
	return id, ok
}

func (b *Bot) handleMove(msg *tgbotapi.Message) error {
	args := strings.Fields(msg.CommandArguments())
	if len(args) != 2 {
		return b.sendText(msg.Chat.ID, "Usage: /move <n> <todo|inProgress|completed>")
	}
	id, ok := b.resolveTaskRef(msg.Chat.ID, args[0])
	if !ok {
		return b.sendText(msg.Chat.ID, "No such task number. Run /tasks or /board first.")
	}
	status := model.Status(args[1])

	err := b.app.Tasks.SetStatus(id, status)
	switch {
	case errors.Is(err, repository.ErrInvalidStatus):
		return b.sendText(msg.Chat.ID, "Status must be one of: todo, inProgress, completed.")
	case errors.Is(err, repository.ErrNotFound):
		return b.sendText(msg.Chat.ID, "Task not found — it may have been deleted.")
	case err != nil:
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not move the task: %s", escape(err.Error())))
	}
	return b.sendBoard(msg.Chat.ID)
}

func (b *Bot) handleReorder(msg *tgbotapi.Message) error {
	args := strings.Fields(msg.CommandArguments())
	if len(args) < 2 {
		return b.sendText(msg.Chat.ID, "Usage: /reorder <status> <n> <n> …")
	}
	status := model.Status(args[0])
	if !status.Valid() {
		return b.sendText(msg.Chat.ID, "Status must be one of: todo, inProgress, completed.")
	}

	ids := make([]string, 0, len(args)-1)
	for _, arg := range args[1:] {
		id, ok := b.resolveTaskRef(msg.Chat.ID, arg)
		if !ok {
			return b.sendText(msg.Chat.ID, fmt.Sprintf("No task numbered %s in the last listing.", escape(arg)))
		}
		ids = append(ids, id)
	}

	if err := b.app.Tasks.ReorderColumn(status, ids); err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not save the order: %s", escape(err.Error())))
	}
	return b.sendBoard(msg.Chat.ID)
}

func (b *Bot) handleComplete(msg *tgbotapi.Message) error {
	arg := strings.TrimSpace(msg.CommandArguments())
	if arg == "" {
		return b.sendText(msg.Chat.ID, "Usage: /complete <n>")
	}
	id, ok := b.resolveTaskRef(msg.Chat.ID, arg)
	if !ok {
		return b.sendText(msg.Chat.ID, "No such task number. Run /tasks or /board first.")
	}
	return b.completeTask(msg.Chat.ID, id)
}

func (b *Bot) completeTask(chatID int64, id string) error {
	task, err := b.app.Tasks.Find(id)
	if errors.Is(err, repository.ErrNotFound) {
		return b.sendText(chatID, "Task not found — it may have been deleted.")
	}
	if err := b.app.Tasks.SetStatus(id, model.StatusCompleted); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return b.sendText(chatID, "Task not found — it may have been deleted.")
		}
		return b.sendText(chatID, fmt.Sprintf("Could not complete the task: %s", escape(err.Error())))
	}
	log.Infof("task completed id=%s", id)
	return b.sendText(chatID, fmt.Sprintf("✅ “%s” moved to completed.", escape(displayTitle(task))))
}

func (b *Bot) handleDeleteTask(msg *tgbotapi.Message) error {
	arg := strings.TrimSpace(msg.CommandArguments())
	if arg == "" {
		return b.sendText(msg.Chat.ID, "Usage: /delete <n>")
	}
	id, ok := b.resolveTaskRef(msg.Chat.ID, arg)
	if !ok {
		return b.sendText(msg.Chat.ID, "No such task number. Run /tasks or /board first.")
	}
	return b.askDeleteTaskConfirmation(msg.Chat.ID, id)
}

func (b *Bot) askDeleteTaskConfirmation(chatID int64, id string) error {
	task, err := b.app.Tasks.Find(id)
	if errors.Is(err, repository.ErrNotFound) {
		return b.sendText(chatID, "Task not found — it may have been deleted.")
	}
	b.setConfirmation(chatID, confirmationRequest{kind: confirmDeleteTask, taskID: id})
	text := fmt.Sprintf("Delete “%s”?", escape(displayTitle(task)))
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) handleConfirmationResponse(msg *tgbotapi.Message, req confirmationRequest) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(msg.Chat.ID)
		switch req.kind {
		case confirmDeleteTask:
			return b.deleteTaskConfirmed(msg.Chat.ID, req.taskID)
		case confirmDeleteCategory:
			return b.deleteCategoryConfirmed(msg.Chat.ID, req.name)
		}
		return nil
	case isCancelInput(text):
		b.clearConfirmation(msg.Chat.ID)
		return b.sendText(msg.Chat.ID, "↩️ Nothing deleted.")
	default:
		return b.sendWithReplyMarkup(msg.Chat.ID, "Please confirm or cancel.", confirmKeyboard())
	}
}

func (b *Bot) deleteTaskConfirmed(chatID int64, id string) error {
	task, err := b.app.Tasks.Find(id)
	if errors.Is(err, repository.ErrNotFound) {
		return b.sendText(chatID, "Task not found — it may have been deleted already.")
	}
	if err := b.app.Tasks.Delete(id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return b.sendText(chatID, "Task not found — it may have been deleted already.")
		}
		return b.sendText(chatID, fmt.Sprintf("Could not delete the task: %s", escape(err.Error())))
	}
	log.Infof("task deleted id=%s", id)
	return b.sendText(chatID, fmt.Sprintf("🗑 “%s” deleted.", escape(displayTitle(task))))
}

func (b *Bot) handleCategories(msg *tgbotapi.Message) error {
	categories := b.app.Categories.List()
	if len(categories) == 0 {
		return b.sendText(msg.Chat.ID, "No categories yet. Add one with /newcategory.")
	}
	var builder strings.Builder
	builder.WriteString("📂 <b>Categories</b>\n")
	for _, cat := range categories {
		builder.WriteString(fmt.Sprintf("• %s <code>%s</code>\n", escape(cat.Name), escape(cat.Color)))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleNewCategory(msg *tgbotapi.Message) error {
	args := strings.Fields(msg.CommandArguments())
	if len(args) == 0 {
		return b.sendText(msg.Chat.ID, "Usage: /newcategory <name> [#rrggbb]")
	}
	name := args[0]
	color := "#808080"
	if len(args) > 1 {
		color = args[1]
	}

	category, err := b.app.Categories.Create(name, color)
	switch {
	case errors.Is(err, repository.ErrEmptyName):
		return b.sendText(msg.Chat.ID, "The category name is empty.")
	case errors.Is(err, repository.ErrDuplicateName):
		return b.sendText(msg.Chat.ID, "That category already exists.")
	case err != nil:
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not save the category: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("📂 Category “%s” added.", escape(category.Name)))
}

func (b *Bot) handleDeleteCategory(msg *tgbotapi.Message) error {
	name := strings.ToLower(strings.TrimSpace(msg.CommandArguments()))
	if name == "" {
		return b.sendText(msg.Chat.ID, "Usage: /delcategory <name>")
	}
	if _, err := b.app.Categories.Find(name); errors.Is(err, repository.ErrNotFound) {
		return b.sendText(msg.Chat.ID, "No such category.")
	}

	// Confirmation lives here at the boundary; the repository just deletes.
	inUse := b.app.Categories.CountTasks(name)
	b.setConfirmation(msg.Chat.ID, confirmationRequest{kind: confirmDeleteCategory, name: name})
	var text string
	if inUse > 0 {
		text = fmt.Sprintf("“%s” is used by %d task(s); they will become uncategorized. Delete it?", escape(name), inUse)
	} else {
		text = fmt.Sprintf("Delete category “%s”?", escape(name))
	}
	return b.sendWithReplyMarkup(msg.Chat.ID, text, confirmKeyboard())
}

func (b *Bot) deleteCategoryConfirmed(chatID int64, name string) error {
	reassigned, err := b.app.Categories.Delete(name)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return b.sendText(chatID, "No such category — it may have been deleted already.")
	case err != nil:
		return b.sendText(chatID, fmt.Sprintf("Could not delete the category: %s", escape(err.Error())))
	}
	log.Infof("category deleted name=%s reassigned=%d", name, reassigned)
	if reassigned > 0 {
		return b.sendText(chatID, fmt.Sprintf("🗑 Category “%s” deleted; %d task(s) moved to uncategorized.", escape(name), reassigned))
	}
	return b.sendText(chatID, fmt.Sprintf("🗑 Category “%s” deleted.", escape(name)))
}

func (b *Bot) handleTheme(msg *tgbotapi.Message) error {
	theme, err := b.app.ToggleTheme()
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not save the theme: %s", escape(err.Error())))
	}
	icon := "☀️"
	if theme == model.ThemeDark {
		icon = "🌙"
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("%s Theme switched to %s.", icon, theme))
}

func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Errorf("callback ack: %v", err)
	}

	chatID := cb.Message.Chat.ID
	b.rememberChat(chatID)
	data := cb.Data

	switch {
	case strings.HasPrefix(data, cbCompletePrefix):
		return b.completeTask(chatID, strings.TrimPrefix(data, cbCompletePrefix))
	case strings.HasPrefix(data, cbDeletePrefix):
		return b.askDeleteTaskConfirmation(chatID, strings.TrimPrefix(data, cbDeletePrefix))
	case strings.HasPrefix(data, cbEditPrefix):
		return b.startEditConversation(chatID, strings.TrimPrefix(data, cbEditPrefix))
	default:
		return nil
	}
}

// NotifyDueSoon implements service.Notifier: every chat the bot has seen
// gets the due-soon message.
func (b *Bot) NotifyDueSoon(task model.Task, remaining time.Duration) {
	text := fmt.Sprintf("⏰ <b>Due soon:</b> “%s” is due in %s.",
		escape(displayTitle(task)), remaining.Round(time.Minute))
	for _, chatID := range b.knownChats() {
		if err := b.sendText(chatID, text); err != nil {
			log.Errorf("send reminder to %d: %v", chatID, err)
		}
	}
}

// SendDailyAgenda pushes today's due tasks to every known chat.
func (b *Bot) SendDailyAgenda(ctx context.Context) error {
	for _, chatID := range b.knownChats() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := b.sendAgenda(chatID); err != nil {
			log.Errorf("send agenda to %d: %v", chatID, err)
		}
	}
	return nil
}

func (b *Bot) rememberChat(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.chats[chatID] = struct{}{}
}

func (b *Bot) knownChats() []int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]int64, 0, len(b.chats))
	for id := range b.chats {
		out = append(out, id)
	}
	return out
}

func (b *Bot) getConfirmation(chatID int64) (confirmationRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.confirmations[chatID]
	return req, ok
}

func (b *Bot) setConfirmation(chatID int64, req confirmationRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[chatID] = req
}

func (b *Bot) clearConfirmation(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, chatID)
}

func (b *Bot) setConversation(chatID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[chatID] = state
}

func (b *Bot) getConversation(chatID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[chatID]
}

func (b *Bot) clearConversation(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, chatID)
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func isConfirmInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnConfirm) || value == "confirm" || value == "yes" || value == "y"
}

func isCancelInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancel) || value == "cancel" || value == "no" || value == "n"
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "cancel input"
}

func isSkipInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == strings.ToLower(btnSkip) || value == "skip"
}

func isClearInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnClear) || value == "clear"
}

func isDoneInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnDone) || value == "done"
}
