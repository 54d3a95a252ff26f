package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Freeeeeet/mentorship_hub/internal/model"
)

// Credentials как клиент представляется серверу: bearer токен или заголовки X-User-Id/X-User-Role
type Credentials struct {
	Token  string
	UserID int64
	Role   model.Role
}

// Apply проставляет идентичность в запрос
func (c Credentials) Apply(h http.Header) {
	if c.Token != "" {
		h.Set("Authorization", "Bearer "+c.Token)
		return
	}
	if c.UserID > 0 {
		h.Set("X-User-Id", strconv.FormatInt(c.UserID, 10))
		h.Set("X-User-Role", string(c.Role))
	}
}

// Client HTTP клиент API менторства
type Client struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
}

func New(baseURL string, creds Credentials) *Client {
	return &Client{
		baseURL: baseURL,
		creds:   creds,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreateBookingRequest тело запроса встречи
type CreateBookingRequest struct {
	StudentID         int64     `json:"student_id"`
	MentorID          int64     `json:"mentor_id"`
	Topic             string    `json:"topic"`
	PreferredDateTime time.Time `json:"preferred_date_time"`
	Message           string    `json:"message,omitempty"`
}

// ConnectionStatus текущий статус пары и последняя заявка, если она есть
type ConnectionStatus struct {
	Status  model.ConnectionStatus   `json:"status"`
	Request *model.ConnectionRequest `json:"request,omitempty"`
}

type statusBody struct {
	Status string `json:"status"`
}

// --- Users ---

func (c *Client) RegisterUser(ctx context.Context, user model.User) (*model.User, error) {
	body := map[string]string{
		"name":      user.Name,
		"full_name": user.FullName,
		"email":     user.Email,
		"role":      string(user.Role),
	}
	var created model.User
	if err := c.post(ctx, "/api/users/", body, &created); err != nil {
		return nil, fmt.Errorf("api.RegisterUser: %w", err)
	}
	return &created, nil
}

func (c *Client) GetUser(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	if err := c.get(ctx, fmt.Sprintf("/api/users/%d/", id), &user); err != nil {
		return nil, fmt.Errorf("api.GetUser: %w", err)
	}
	return &user, nil
}

func (c *Client) LinkTelegram(ctx context.Context, userID, telegramID int64) (*model.User, error) {
	var user model.User
	body := map[string]int64{"telegram_id": telegramID}
	if err := c.post(ctx, fmt.Sprintf("/api/users/%d/telegram/", userID), body, &user); err != nil {
		return nil, fmt.Errorf("api.LinkTelegram: %w", err)
	}
	return &user, nil
}

// --- Connection requests ---

func (c *Client) CreateConnectionRequest(ctx context.Context, studentID, mentorID int64, message string) (*model.ConnectionRequest, error) {
	body := map[string]interface{}{
		"student_id": studentID,
		"mentor_id":  mentorID,
		"message":    message,
	}
	var req model.ConnectionRequest
	if err := c.post(ctx, "/api/simple-connection-request/", body, &req); err != nil {
		return nil, fmt.Errorf("api.CreateConnectionRequest: %w", err)
	}
	return &req, nil
}

func (c *Client) GetConnectionRequest(ctx context.Context, id int64) (*model.ConnectionRequest, error) {
	var req model.ConnectionRequest
	if err := c.get(ctx, fmt.Sprintf("/api/connection-requests/%d/", id), &req); err != nil {
		return nil, fmt.Errorf("api.GetConnectionRequest: %w", err)
	}
	return &req, nil
}

func (c *Client) RespondConnectionRequest(ctx context.Context, id int64, decision model.ConnectionStatus) (*model.ConnectionRequest, error) {
	var req model.ConnectionRequest
	path := fmt.Sprintf("/api/connection-requests/%d/", id)
	if err := c.doRequest(ctx, http.MethodPatch, path, statusBody{Status: string(decision)}, &req); err != nil {
		return nil, fmt.Errorf("api.RespondConnectionRequest: %w", err)
	}
	return &req, nil
}

func (c *Client) GetConnectionStatus(ctx context.Context, studentID, mentorID int64) (*ConnectionStatus, error) {
	params := url.Values{}
	params.Set("student_id", strconv.FormatInt(studentID, 10))
	params.Set("mentor_id", strconv.FormatInt(mentorID, 10))

	var status ConnectionStatus
	if err := c.get(ctx, "/api/connection-status/?"+params.Encode(), &status); err != nil {
		return nil, fmt.Errorf("api.GetConnectionStatus: %w", err)
	}
	return &status, nil
}

// MentorRequests заявки ментора, pendingOnly оставляет только ожидающие ответа
func (c *Client) MentorRequests(ctx context.Context, mentorID int64, pendingOnly bool) ([]*model.ConnectionRequest, error) {
	params := url.Values{}
	params.Set("mentor_id", strconv.FormatInt(mentorID, 10))
	if pendingOnly {
		params.Set("status", string(model.ConnectionStatusPending))
	}

	var list []*model.ConnectionRequest
	if err := c.get(ctx, "/api/mentor/requests/?"+params.Encode(), &list); err != nil {
		return nil, fmt.Errorf("api.MentorRequests: %w", err)
	}
	return list, nil
}

func (c *Client) StudentConnections(ctx context.Context, studentID int64) ([]*model.ConnectionRequest, error) {
	var list []*model.ConnectionRequest
	if err := c.get(ctx, "/api/student/connections/?"+partyQuery("student_id", studentID), &list); err != nil {
		return nil, fmt.Errorf("api.StudentConnections: %w", err)
	}
	return list, nil
}

// --- Bookings ---

func (c *Client) CreateBooking(ctx context.Context, req CreateBookingRequest) (*model.Booking, error) {
	var booking model.Booking
	if err := c.post(ctx, "/api/book-session/", req, &booking); err != nil {
		return nil, fmt.Errorf("api.CreateBooking: %w", err)
	}
	return &booking, nil
}

func (c *Client) GetBooking(ctx context.Context, id int64) (*model.Booking, error) {
	var booking model.Booking
	if err := c.get(ctx, fmt.Sprintf("/api/bookings/%d/", id), &booking); err != nil {
		return nil, fmt.Errorf("api.GetBooking: %w", err)
	}
	return &booking, nil
}

func (c *Client) RespondBooking(ctx context.Context, id int64, decision model.BookingStatus) (*model.Booking, error) {
	var booking model.Booking
	path := fmt.Sprintf("/api/booking-status/%d/", id)
	if err := c.doRequest(ctx, http.MethodPatch, path, statusBody{Status: string(decision)}, &booking); err != nil {
		return nil, fmt.Errorf("api.RespondBooking: %w", err)
	}
	return &booking, nil
}

func (c *Client) ScheduleBooking(ctx context.Context, id int64, details model.ScheduleDetails) (*model.Booking, error) {
	var booking model.Booking
	if err := c.post(ctx, fmt.Sprintf("/api/schedule-session/%d/", id), details, &booking); err != nil {
		return nil, fmt.Errorf("api.ScheduleBooking: %w", err)
	}
	return &booking, nil
}

// ListStudentBookings бронирования студента, upcoming убирает прошедшие
func (c *Client) ListStudentBookings(ctx context.Context, studentID int64, upcoming bool) ([]*model.Booking, error) {
	return c.listBookings(ctx, "student_id", studentID, upcoming)
}

// ListMentorBookings бронирования ментора, upcoming убирает прошедшие
func (c *Client) ListMentorBookings(ctx context.Context, mentorID int64, upcoming bool) ([]*model.Booking, error) {
	return c.listBookings(ctx, "mentor_id", mentorID, upcoming)
}

func (c *Client) listBookings(ctx context.Context, param string, id int64, upcoming bool) ([]*model.Booking, error) {
	params := url.Values{}
	params.Set(param, strconv.FormatInt(id, 10))
	if upcoming {
		params.Set("upcoming", "true")
	}

	var list []*model.Booking
	if err := c.get(ctx, "/api/bookings/?"+params.Encode(), &list); err != nil {
		return nil, fmt.Errorf("api.ListBookings: %w", err)
	}
	return list, nil
}

func (c *Client) StudentSessions(ctx context.Context, studentID int64) ([]*model.Booking, error) {
	var list []*model.Booking
	if err := c.get(ctx, "/api/student/sessions/?"+partyQuery("student_id", studentID), &list); err != nil {
		return nil, fmt.Errorf("api.StudentSessions: %w", err)
	}
	return list, nil
}

func (c *Client) MentorBookingRequests(ctx context.Context, mentorID int64) ([]*model.Booking, error) {
	var list []*model.Booking
	if err := c.get(ctx, "/api/mentor/booking-requests/?"+partyQuery("mentor_id", mentorID), &list); err != nil {
		return nil, fmt.Errorf("api.MentorBookingRequests: %w", err)
	}
	return list, nil
}

func (c *Client) AcceptedBookings(ctx context.Context, mentorID int64) ([]*model.Booking, error) {
	var list []*model.Booking
	if err := c.get(ctx, "/api/accepted-bookings/?"+partyQuery("mentor_id", mentorID), &list); err != nil {
		return nil, fmt.Errorf("api.AcceptedBookings: %w", err)
	}
	return list, nil
}

func (c *Client) MentorSessions(ctx context.Context, mentorID int64) ([]*model.Booking, error) {
	var list []*model.Booking
	if err := c.get(ctx, "/api/mentor/sessions/?"+partyQuery("mentor_id", mentorID), &list); err != nil {
		return nil, fmt.Errorf("api.MentorSessions: %w", err)
	}
	return list, nil
}

// --- Messages ---

func (c *Client) SendMessage(ctx context.Context, send model.ChatSend) (*model.Message, error) {
	body := map[string]interface{}{
		"content":     send.Content,
		"sender_type": send.SenderType,
		"sender_id":   int64(send.SenderID),
		"receiver_id": int64(send.ReceiverID),
	}
	var msg model.Message
	if err := c.post(ctx, "/api/messages/", body, &msg); err != nil {
		return nil, fmt.Errorf("api.SendMessage: %w", err)
	}
	return &msg, nil
}

// Conversation сообщения пары в обе стороны, по возрастанию времени
func (c *Client) Conversation(ctx context.Context, senderID, receiverID int64) ([]*model.Message, error) {
	params := url.Values{}
	params.Set("sender_id", strconv.FormatInt(senderID, 10))
	params.Set("receiver_id", strconv.FormatInt(receiverID, 10))

	var list []*model.Message
	if err := c.get(ctx, "/api/messages/list/?"+params.Encode(), &list); err != nil {
		return nil, fmt.Errorf("api.Conversation: %w", err)
	}
	return list, nil
}

// Inbox сообщения, полученные пользователем
func (c *Client) Inbox(ctx context.Context, userID int64) ([]*model.Message, error) {
	var list []*model.Message
	if err := c.get(ctx, "/api/messages/inbox/?"+partyQuery("user_id", userID), &list); err != nil {
		return nil, fmt.Errorf("api.Inbox: %w", err)
	}
	return list, nil
}

// MarkConversationRead отмечает прочитанными сообщения от otherID, возвращает их число
func (c *Client) MarkConversationRead(ctx context.Context, otherID int64) (int64, error) {
	var resp struct {
		Marked int64 `json:"marked"`
	}
	if err := c.post(ctx, "/api/messages/read/", map[string]int64{"other_id": otherID}, &resp); err != nil {
		return 0, fmt.Errorf("api.MarkConversationRead: %w", err)
	}
	return resp.Marked, nil
}

func partyQuery(param string, id int64) string {
	params := url.Values{}
	params.Set(param, strconv.FormatInt(id, 10))
	return params.Encode()
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, http.MethodPost, path, body, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.creds.Apply(req.Header)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if readErr != nil {
			return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
		}
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Error}
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
