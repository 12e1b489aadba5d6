package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"quiz-vault/internal/app"
	"quiz-vault/internal/auth"
	"quiz-vault/internal/domain"
	"quiz-vault/internal/storage"
)

// WSHandler serves the quiz over websockets. Each connection behaves like a
// browser tab: it owns an auth session and a service mirror, while all
// connections share the store and the change feed.
type WSHandler struct {
	store    *storage.Store
	feed     *app.Feed
	upgrader websocket.Upgrader
}

func NewWSHandler(store *storage.Store, feed *app.Feed) *WSHandler {
	return &WSHandler{
		store: store,
		feed:  feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type idPayload struct {
	ID string `json:"id"`
}

type editQuestionPayload struct {
	ID string `json:"id"`
	domain.QuestionInput
}

type answerPayload struct {
	QuestionID     string `json:"questionId"`
	SelectedOption int    `json:"selectedOption"`
}

type identityResult struct {
	User            *domain.User `json:"user"`
	IsAuthenticated bool         `json:"isAuthenticated"`
	IsAdmin         bool         `json:"isAdmin"`
}

type readyResult struct {
	identityResult
	Questions []domain.Question `json:"questions"`
}

type answersResult struct {
	Answers    []domain.Answer `json:"answers"`
	AllAnswers []domain.Answer `json:"allAnswers,omitempty"`
}

type answerLookupResult struct {
	Found   bool           `json:"found"`
	Answer  *domain.Answer `json:"answer,omitempty"`
	History []historyEntry `json:"history,omitempty"`
}

// historyEntry is a revision marked against the question's current key.
type historyEntry struct {
	domain.HistoryEntry
	IsCorrect bool `json:"isCorrect"`
}

type questionResult struct {
	Found    bool             `json:"found"`
	Question *domain.Question `json:"question,omitempty"`
}

type removeResult struct {
	Removed bool `json:"removed"`
}

type tab struct {
	session *auth.Session
	service *app.QuizService
}

// ServeWS upgrades HTTP requests to websockets and wires them into the quiz use cases.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	profile := r.URL.Query().Get("profile")
	if profile == "" {
		profile = "default"
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	t, err := h.openTab(ctx, profile)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: toErrorPayload(err)})
		return
	}

	updates, cancel := t.service.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	// another tab wrote to the store: reload before telling the client
	go func() {
		defer close(updatesDone)
		for {
			select {
			case event, ok := <-updates:
				if !ok {
					return
				}
				if err := t.service.Load(ctx); err != nil {
					log.Printf("ws reload after %s change failed: %v", event.Kind, err)
					continue
				}
				select {
				case send <- outboundMessage[any]{Type: "changed", Payload: event}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "ready", Payload: readyResult{
		identityResult: identityOf(t.session),
		Questions:      t.service.Questions(),
	}}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		send <- h.dispatch(ctx, t, inbound)
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) openTab(ctx context.Context, profile string) (*tab, error) {
	session := auth.NewSession(h.store.KV(), auth.KeyForProfile(profile))
	if err := session.Restore(ctx); err != nil {
		return nil, err
	}
	service := app.NewQuizService(h.store, session, h.feed)
	if err := service.Load(ctx); err != nil {
		return nil, err
	}
	return &tab{session: session, service: service}, nil
}

func (h *WSHandler) dispatch(ctx context.Context, t *tab, inbound inboundMessage) outboundMessage[any] {
	result, err := h.handle(ctx, t, inbound)
	if err != nil {
		return outboundMessage[any]{Type: "error", Payload: toErrorPayload(err)}
	}
	return outboundMessage[any]{Type: inbound.Type + "Result", Payload: result}
}

var errBadPayload = errors.New("invalid payload")

func decode[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, errBadPayload
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("%w: %v", errBadPayload, err)
	}
	return v, nil
}

func (h *WSHandler) handle(ctx context.Context, t *tab, inbound inboundMessage) (any, error) {
	switch inbound.Type {
	case "login":
		p, err := decode[loginPayload](inbound.Payload)
		if err != nil {
			return nil, err
		}
		if _, err := t.session.Login(ctx, p.Email, p.Password); err != nil {
			return nil, err
		}
		return identityOf(t.session), nil

	case "logout":
		if err := t.session.Logout(ctx); err != nil {
			return nil, err
		}
		return identityOf(t.session), nil

	case "whoami":
		return identityOf(t.session), nil

	case "listQuestions":
		return map[string]any{"questions": t.service.Questions()}, nil

	case "listAnswers":
		res := answersResult{Answers: t.service.UserAnswers()}
		if t.session.IsAdmin() {
			res.AllAnswers = t.service.AllAnswers()
		}
		return res, nil

	case "getAnswer":
		p, err := decode[answerPayload](inbound.Payload)
		if err != nil {
			return nil, err
		}
		answer, found := t.service.AnswerForQuestion(p.QuestionID)
		if !found {
			return answerLookupResult{Found: false}, nil
		}
		return answerFound(t.service, answer), nil

	case "createQuestion":
		p, err := decode[domain.QuestionInput](inbound.Payload)
		if err != nil {
			return nil, err
		}
		in := p.Normalize()
		if err := in.Validate(); err != nil {
			return nil, err
		}
		q, err := t.service.CreateQuestion(ctx, in)
		if err != nil {
			return nil, err
		}
		return questionResult{Found: true, Question: &q}, nil

	case "editQuestion":
		p, err := decode[editQuestionPayload](inbound.Payload)
		if err != nil {
			return nil, err
		}
		in := p.QuestionInput.Normalize()
		if err := in.Validate(); err != nil {
			return nil, err
		}
		q, found, err := t.service.EditQuestion(ctx, p.ID, domain.UpdateFromInput(in))
		if err != nil {
			return nil, err
		}
		if !found {
			return questionResult{Found: false}, nil
		}
		return questionResult{Found: true, Question: &q}, nil

	case "removeQuestion":
		p, err := decode[idPayload](inbound.Payload)
		if err != nil {
			return nil, err
		}
		removed, err := t.service.RemoveQuestion(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		return removeResult{Removed: removed}, nil

	case "submitAnswer", "editAnswer":
		p, err := decode[answerPayload](inbound.Payload)
		if err != nil {
			return nil, err
		}
		if err := checkSelection(t.service, p); err != nil {
			return nil, err
		}
		if inbound.Type == "submitAnswer" {
			answer, err := t.service.SubmitAnswer(ctx, p.QuestionID, p.SelectedOption)
			if err != nil {
				return nil, err
			}
			return answerFound(t.service, answer), nil
		}
		answer, found, err := t.service.EditAnswer(ctx, p.QuestionID, p.SelectedOption)
		if err != nil {
			return nil, err
		}
		if !found {
			return answerLookupResult{Found: false}, nil
		}
		return answerFound(t.service, answer), nil

	default:
		return nil, fmt.Errorf("%w: unsupported message type %q", errBadPayload, inbound.Type)
	}
}

var errUnknownQuestion = errors.New("question not found")

// checkSelection is the answer form's validation: the option must exist on
// the question as currently rendered.
func checkSelection(service *app.QuizService, p answerPayload) error {
	q, ok := service.Question(p.QuestionID)
	if !ok {
		return errUnknownQuestion
	}
	if !q.HasOption(p.SelectedOption) {
		return fmt.Errorf("%w: option %d out of range", errBadPayload, p.SelectedOption)
	}
	return nil
}

// answerFound renders an answer with its history newest first, each entry
// marked against the question as currently mirrored.
func answerFound(service *app.QuizService, answer domain.Answer) answerLookupResult {
	question, _ := service.Question(answer.QuestionID)
	entries := answer.HistoryNewestFirst()
	history := make([]historyEntry, 0, len(entries))
	for _, entry := range entries {
		history = append(history, historyEntry{
			HistoryEntry: entry,
			IsCorrect:    question.IsCorrect(entry.SelectedOption),
		})
	}
	return answerLookupResult{Found: true, Answer: &answer, History: history}
}

func identityOf(session *auth.Session) identityResult {
	user, ok := session.Current()
	if !ok {
		return identityResult{}
	}
	return identityResult{User: &user, IsAuthenticated: true, IsAdmin: user.IsAdmin()}
}

func toErrorPayload(err error) errorPayload {
	code := "internal"
	switch {
	case errors.Is(err, domain.ErrForbidden):
		code = "forbidden"
	case errors.Is(err, domain.ErrUnauthenticated):
		code = "unauthenticated"
	case errors.Is(err, domain.ErrMissingField):
		code = "missingField"
	case errors.Is(err, domain.ErrInvalidCredentials):
		code = "invalidCredentials"
	case errors.Is(err, domain.ErrInvalidQuestion), errors.Is(err, domain.ErrInvalidUpdate), errors.Is(err, errBadPayload):
		code = "invalid"
	case errors.Is(err, errUnknownQuestion):
		code = "notFound"
	}
	if code == "internal" {
		log.Printf("ws request failed: %v", err)
	}
	return errorPayload{Code: code, Message: err.Error()}
}
