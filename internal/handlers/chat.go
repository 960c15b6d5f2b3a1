package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"Agora/internal/apperrors"
	"Agora/internal/chat"
	"Agora/internal/models"
	"Agora/internal/storage"
	"Agora/internal/validation"
)

// UsernameHeader names the current user. Resolving who is behind it is the
// job of whatever authenticates requests in front of this server.
const UsernameHeader = "X-Username"

type UserFinder interface {
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
}

type ChatHandler struct {
	Channels *chat.ChannelService
	Messages *chat.MessageService
	Users    UserFinder

	validate *validator.Validate
	log      *slog.Logger
}

func NewChatHandler(channels *chat.ChannelService, messages *chat.MessageService, users UserFinder, log *slog.Logger) *ChatHandler {
	return &ChatHandler{
		Channels: channels,
		Messages: messages,
		Users:    users,
		validate: validation.New(),
		log:      log.With("component", "chat-handler"),
	}
}

// Missing form fields stay nil so that "required" tells absent from empty.
type addChannelForm struct {
	ChannelName *string `validate:"required,channelname"`
}

type getMessagesForm struct {
	ChannelName *string `validate:"required"`
	Counter     *string `validate:"required"`
}

type addMessageForm struct {
	MessageContent *string `validate:"required"`
	Channel        *string `validate:"required"`
}

type channelNameForm struct {
	ChannelName *string `validate:"required"`
}

// AddChannel handles POST /add-channel.
func (ch *ChatHandler) AddChannel(w http.ResponseWriter, r *http.Request) {
	form := addChannelForm{ChannelName: formValue(r, "channelName")}
	if err := ch.bind(form); err != nil {
		ch.writeAddChannelError(w, err)
		return
	}

	channel, err := ch.Channels.CreateChannel(r.Context(), *form.ChannelName)
	if err != nil {
		ch.writeAddChannelError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"channelName": channel.Name})
}

// GetMessages handles POST /get-messages.
func (ch *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	form := getMessagesForm{
		ChannelName: formValue(r, "channelName"),
		Counter:     formValue(r, "counter"),
	}
	if err := ch.bind(form); err != nil {
		ch.writeError(w, err)
		return
	}
	counter, err := strconv.Atoi(strings.TrimSpace(*form.Counter))
	if err != nil {
		ch.writeError(w, apperrors.InvalidArg("counter must be an integer"))
		return
	}

	messages, err := ch.Messages.GetMessages(r.Context(), *form.ChannelName, counter)
	if err != nil {
		ch.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]models.MessageView{"messages": messages})
}

// AddMessage handles POST /add-message.
func (ch *ChatHandler) AddMessage(w http.ResponseWriter, r *http.Request) {
	form := addMessageForm{
		MessageContent: formValue(r, "messageContent"),
		Channel:        formValue(r, "channel"),
	}
	if err := ch.bind(form); err != nil {
		ch.writeError(w, err)
		return
	}
	user, ok := UserFromContext(r.Context())
	if !ok {
		ch.writeError(w, apperrors.Unauthenticated("missing "+UsernameHeader+" header"))
		return
	}

	if _, err := ch.Messages.CreateMessage(r.Context(), *form.MessageContent, *form.Channel, user); err != nil {
		ch.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// InitialCounter handles POST /initial-counter.
func (ch *ChatHandler) InitialCounter(w http.ResponseWriter, r *http.Request) {
	form := channelNameForm{ChannelName: formValue(r, "channelName")}
	if err := ch.bind(form); err != nil {
		ch.writeError(w, err)
		return
	}

	counter, err := ch.Messages.InitialCounter(r.Context(), *form.ChannelName)
	if err != nil {
		ch.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"counter": counter})
}

// ListChannels handles GET /channels.
func (ch *ChatHandler) ListChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := ch.Channels.ListChannels(r.Context())
	if err != nil {
		ch.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{
		"channels": lo.Map(channels, func(c models.Channel, _ int) string { return c.Name }),
	})
}

func (ch *ChatHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "agora",
	})
}

// bind checks form against its validate tags and turns failures into
// application errors.
func (ch *ChatHandler) bind(form any) error {
	err := ch.validate.Struct(form)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.Internal("failed to validate form", err)
	}
	for _, fe := range fieldErrs {
		if fe.Tag() == "channelname" {
			return chat.ErrInvalidChannelName
		}
	}
	missing := lo.Map(fieldErrs, func(fe validator.FieldError, _ int) string {
		return lowerFirst(fe.Field())
	})
	return apperrors.InvalidArg("missing form fields: " + strings.Join(missing, ", "))
}

func (ch *ChatHandler) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		ch.log.Error("Request failed", "error", err)
	}
	writeJSON(w, status, errorBody(err))
}

// writeAddChannelError flags the add-channel form as invalid when the name
// was rejected, so the page can show it next to the form.
func (ch *ChatHandler) writeAddChannelError(w http.ResponseWriter, err error) {
	if !apperrors.Is(err, apperrors.CodeValidationFailed) {
		ch.writeError(w, err)
		return
	}
	body := errorBody(err)
	body["addChannelFormInvalid"] = true
	writeJSON(w, apperrors.HTTPStatus(err), body)
}

type userKey struct{}

// WithUser resolves the UsernameHeader into a stored user. Requests without
// the header pass through anonymous; an unknown name is rejected.
func (ch *ChatHandler) WithUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username := strings.TrimSpace(r.Header.Get(UsernameHeader))
		if username == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, err := ch.Users.GetUserByUsername(r.Context(), username)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				ch.writeError(w, apperrors.Unauthenticated("unknown user "+strconv.Quote(username)))
				return
			}
			ch.writeError(w, apperrors.Internal("failed to look up user", err))
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
	})
}

func ContextWithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userKey{}).(models.User)
	return user, ok
}

func formValue(r *http.Request, key string) *string {
	if err := r.ParseForm(); err != nil {
		return nil
	}
	values, ok := r.PostForm[key]
	if !ok || len(values) == 0 {
		return nil
	}
	return &values[0]
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
