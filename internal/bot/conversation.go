package bot

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"taskboard/internal/attach"
	"taskboard/internal/model"
	"taskboard/internal/repository"
)

// conversationMode tags whether the staged input creates a task or edits
// an existing one. A single stage machine serves both.
type conversationMode int

const (
	modeCreate conversationMode = iota
	modeEdit
)

type conversationStage int

const (
	stageTitle conversationStage = iota
	stageDescription
	stageCategory
	stagePriority
	stageDueDate
	stageRecurrence
	stageAttachments
)

const dueDateLayout = "2006-01-02 15:04"

type conversationState struct {
	mode   conversationMode
	taskID string // set in modeEdit
	stage  conversationStage

	draft repository.Draft // modeCreate accumulates here
	patch repository.Patch // modeEdit accumulates here
	files []attach.File
}

func (b *Bot) startCreateConversation(chatID int64) error {
	b.setConversation(chatID, &conversationState{mode: modeCreate, stage: stageTitle})
	return b.sendWithReplyMarkup(chatID, "🆕 New task.\n<b>Step 1:</b> what's the title?", cancelKeyboard())
}

func (b *Bot) handleEdit(msg *tgbotapi.Message) error {
	arg := strings.TrimSpace(msg.CommandArguments())
	if arg == "" {
		return b.sendText(msg.Chat.ID, "Usage: /edit <n>")
	}
	id, ok := b.resolveTaskRef(msg.Chat.ID, arg)
	if !ok {
		return b.sendText(msg.Chat.ID, "No such task number. Run /tasks or /board first.")
	}
	return b.startEditConversation(msg.Chat.ID, id)
}

func (b *Bot) startEditConversation(chatID int64, taskID string) error {
	task, err := b.app.Tasks.Find(taskID)
	if errors.Is(err, repository.ErrNotFound) {
		return b.sendText(chatID, "Task not found — it may have been deleted.")
	}
	b.setConversation(chatID, &conversationState{mode: modeEdit, taskID: taskID, stage: stageTitle})
	text := fmt.Sprintf("✏️ Editing “%s”.\n<b>Step 1:</b> new title? (Skip keeps the current one)", escape(displayTitle(task)))
	return b.sendWithReplyMarkup(chatID, text, skipKeyboard())
}

func (b *Bot) handleConversation(msg *tgbotapi.Message, state *conversationState) error {
	text := strings.TrimSpace(msg.Text)
	chatID := msg.Chat.ID

	switch state.stage {
	case stageTitle:
		if state.mode == modeCreate {
			state.draft.Title = text
		} else if !isSkipInput(text) {
			state.patch.Title = &text
		}
		state.stage = stageDescription
		return b.sendWithReplyMarkup(chatID, "✏️ Add a short description (or Skip).", skipKeyboard())

	case stageDescription:
		if !isSkipInput(text) {
			if state.mode == modeCreate {
				state.draft.Description = text
			} else {
				state.patch.Description = &text
			}
		}
		state.stage = stageCategory
		return b.sendWithReplyMarkup(chatID, "🏷 Pick a category or type your own (or Skip).", b.categoryKeyboard())

	case stageCategory:
		if !isSkipInput(text) {
			name := strings.ToLower(text)
			if state.mode == modeCreate {
				state.draft.Category = name
			} else {
				state.patch.Category = &name
			}
		}
		state.stage = stagePriority
		return b.sendWithReplyMarkup(chatID, "🎯 Priority?", priorityKeyboard())

	case stagePriority:
		if !isSkipInput(text) {
			priority := model.Priority(strings.ToLower(text))
			if !priority.Valid() {
				return b.sendWithReplyMarkup(chatID, "Pick low, medium or high (or Skip).", priorityKeyboard())
			}
			if state.mode == modeCreate {
				state.draft.Priority = priority
			} else {
				state.patch.Priority = &priority
			}
		}
		state.stage = stageDueDate
		prompt := fmt.Sprintf("⏰ Due date as <code>%s</code> (or Skip", dueDateLayout)
		if state.mode == modeEdit {
			prompt += ", or Clear to remove it"
		}
		prompt += ")."
		return b.sendWithReplyMarkup(chatID, prompt, dueDateKeyboard(state.mode))

	case stageDueDate:
		switch {
		case isSkipInput(text):
		case state.mode == modeEdit && isClearInput(text):
			state.patch.ClearDueDate = true
		default:
			parsed, err := time.ParseInLocation(dueDateLayout, text, time.Local)
			if err != nil {
				return b.sendWithReplyMarkup(chatID,
					fmt.Sprintf("I can't parse that date. Use <code>%s</code> or Skip.", dueDateLayout),
					dueDateKeyboard(state.mode))
			}
			if state.mode == modeCreate {
				state.draft.DueDate = &parsed
			} else {
				state.patch.DueDate = &parsed
			}
		}
		state.stage = stageRecurrence
		return b.sendWithReplyMarkup(chatID, "🔁 Recurrence tag? (none, daily, weekly, monthly — or Skip)", recurrenceKeyboard())

	case stageRecurrence:
		if !isSkipInput(text) {
			tag := strings.ToLower(text)
			if state.mode == modeCreate {
				state.draft.Recurrence = tag
			} else {
				state.patch.Recurrence = &tag
			}
		}
		if state.mode == modeEdit {
			// Attachments are fixed at creation; edit commits here.
			err := b.finishEdit(chatID, state)
			b.clearConversation(chatID)
			return err
		}
		state.stage = stageAttachments
		return b.sendWithReplyMarkup(chatID, "📎 Send files to attach, then press Done (or just Done for none).", doneKeyboard())

	case stageAttachments:
		if msg.Document != nil {
			state.files = append(state.files, b.telegramFile(msg.Document))
			return b.sendWithReplyMarkup(chatID,
				fmt.Sprintf("📎 Got “%s” (%d so far). Send more or press Done.", escape(msg.Document.FileName), len(state.files)),
				doneKeyboard())
		}
		if isDoneInput(text) {
			err := b.finishCreate(chatID, state)
			b.clearConversation(chatID)
			return err
		}
		return b.sendWithReplyMarkup(chatID, "Send a file or press Done.", doneKeyboard())

	default:
		b.clearConversation(chatID)
		return b.sendText(chatID, "Input reset. Start again with /newtask.")
	}
}

// telegramFile wraps a received document as an ingestion handle. The
// payload is fetched only when the whole batch is read, so a failed
// download aborts the creation instead of leaving a partial task.
func (b *Bot) telegramFile(doc *tgbotapi.Document) attach.File {
	fileID := doc.FileID
	return attach.File{
		Name:     doc.FileName,
		MIMEType: doc.MimeType,
		Open: func() (io.ReadCloser, error) {
			url, err := b.api.GetFileDirectURL(fileID)
			if err != nil {
				return nil, fmt.Errorf("resolve file url: %w", err)
			}
			resp, err := http.Get(url)
			if err != nil {
				return nil, err
			}
			if resp.StatusCode != http.StatusOK {
				resp.Body.Close()
				return nil, fmt.Errorf("download file: status %s", resp.Status)
			}
			return resp.Body, nil
		},
	}
}

func (b *Bot) finishCreate(chatID int64, state *conversationState) error {
	attachments, err := attach.ReadAll(state.files)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("❌ Attachment failed, task not created: %s", escape(err.Error())))
	}
	state.draft.Attachments = attachments

	task, err := b.app.Tasks.Create(state.draft)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not save the task: %s", escape(err.Error())))
	}
	log.Infof("task created id=%s status=%s order=%d", task.ID, task.Status, task.OrderIndex)

	if err := b.sendTextWithRemove(chatID, b.renderTaskSummary(task, "✅ <b>Task saved</b>")); err != nil {
		return err
	}
	return b.sendBoard(chatID)
}

func (b *Bot) finishEdit(chatID int64, state *conversationState) error {
	task, err := b.app.Tasks.Update(state.taskID, state.patch)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return b.sendTextWithRemove(chatID, "Task not found — it may have been deleted while editing.")
	case err != nil:
		return b.sendTextWithRemove(chatID, fmt.Sprintf("Could not save the changes: %s", escape(err.Error())))
	}
	log.Infof("task updated id=%s", task.ID)
	return b.sendTextWithRemove(chatID, b.renderTaskSummary(task, "✅ <b>Task updated</b>"))
}

func (b *Bot) sendTextWithRemove(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	_, err := b.api.Send(msg)
	return err
}
