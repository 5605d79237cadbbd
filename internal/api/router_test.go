package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UMC-MyFit/my-fit-back-sub000/config"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/api/handler"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/api/middleware"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/auth"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/chatcache"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/realtime"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/repository"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/service"
	"github.com/UMC-MyFit/my-fit-back-sub000/pkg/apperr"
	"github.com/UMC-MyFit/my-fit-back-sub000/pkg/database"
	"github.com/UMC-MyFit/my-fit-back-sub000/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := middleware.RegisterValidators(); err != nil {
		panic(err)
	}
}

type testServer struct {
	router *gin.Engine
	mr     *miniredis.Miniredis
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	broker := realtime.NewRedisBroker(client)
	disp := realtime.NewDispatcher(broker, 64, time.Second)
	stop := disp.Start(2)
	t.Cleanup(func() { _ = stop(context.Background()) })

	lifetime, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	tokens := auth.NewManager(config.JWTConfig{Secret: "test", Issuer: "myfit", Expiration: time.Hour})
	services := repository.NewServiceRepository(db)
	rooms := repository.NewChatRoomRepository(db)
	messages := repository.NewMessageRepository(db)
	notifications := repository.NewNotificationRepository(db)
	cache := chatcache.NewRedisCache(client, chatcache.DefaultSize, 0)

	h := handler.New(handler.Deps{
		Users: service.NewUserService(db, services, tokens),
		Relations: service.NewRelationshipService(db, services,
			repository.NewInterestRepository(db), repository.NewNetworkRepository(db), repository.NewBlockRepository(db)),
		Chat:          service.NewChatService(db, rooms, messages, services, cache, disp),
		Coffeechats:   service.NewCoffeechatService(db, repository.NewCoffeechatRepository(db), rooms, messages, services, cache, disp),
		Feeds:         service.NewFeedService(db, repository.NewFeedRepository(db), notifications, services),
		Notifications: service.NewNotificationService(notifications),
		Subscriber:    broker,
		Lifetime:      lifetime,
	})
	return &testServer{
		router: NewRouter(h, tokens, Options{ServiceName: "myfit-test"}),
		mr:     mr,
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, response.Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

var emailSeq atomic.Int64

type account struct {
	id    int64
	token string
}

func (s *testServer) register(t *testing.T, name string) account {
	t.Helper()
	email := fmt.Sprintf("%s%d@myfit.io", name, emailSeq.Add(1))
	code, resp := s.do(t, http.MethodPost, "/api/v1/users/signup", "", gin.H{
		"email": email, "password": "password1", "name": name, "sector": "IT",
	})
	require.Equal(t, http.StatusCreated, code, resp.Message)

	code, resp = s.do(t, http.MethodPost, "/api/v1/users/login", "", gin.H{"email": email, "password": "password1"})
	require.Equal(t, http.StatusOK, code, resp.Message)
	result := resp.Result.(map[string]any)
	return account{id: int64(result["service_id"].(float64)), token: result["access_token"].(string)}
}

func errorCode(resp response.Response) string {
	if m, ok := resp.Result.(map[string]any); ok {
		s, _ := m["errorCode"].(string)
		return s
	}
	return ""
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	code, resp := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.IsSuccess)
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)
	code, resp := s.do(t, http.MethodGet, "/api/v1/interests", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, apperr.CodeUnauthorized, errorCode(resp))
}

func TestSignupValidation(t *testing.T) {
	s := newTestServer(t)
	code, _ := s.do(t, http.MethodPost, "/api/v1/users/signup", "", gin.H{
		"email": "not-an-email", "password": "password1", "name": "a",
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPost, "/api/v1/users/signup", "", gin.H{
		"email": "a@myfit.io", "password": "password1", "name": "   ",
	})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestInterestFlow(t *testing.T) {
	s := newTestServer(t)
	alice, bob := s.register(t, "alice"), s.register(t, "bob")
	bobPath := fmt.Sprintf("/api/v1/interests/%d", bob.id)

	code, _ := s.do(t, http.MethodPost, bobPath, alice.token, nil)
	require.Equal(t, http.StatusCreated, code)

	code, resp := s.do(t, http.MethodPost, bobPath, alice.token, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, apperr.CodeInterestExists, errorCode(resp))

	code, resp = s.do(t, http.MethodGet, bobPath+"/status", alice.token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, resp.Result.(map[string]any)["is_interested"])

	code, resp = s.do(t, http.MethodGet, "/api/v1/interests/received/count", bob.token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, resp.Result.(map[string]any)["count"])

	code, _ = s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/interests/%d", alice.id), alice.token, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodGet, "/api/v1/interests?limit=99", alice.token, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestNetworkFlow(t *testing.T) {
	s := newTestServer(t)
	alice, bob := s.register(t, "alice"), s.register(t, "bob")

	code, resp := s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/networks/request/%d", bob.id), alice.token, nil)
	require.Equal(t, http.StatusCreated, code, resp.Message)
	networkID := int64(resp.Result.(map[string]any)["network_id"].(float64))

	code, _ = s.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/networks/request/%d/accept", networkID), alice.token, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/networks/request/%d/accept", networkID), bob.token, nil)
	require.Equal(t, http.StatusOK, code)

	code, resp = s.do(t, http.MethodGet, "/api/v1/networks/count", alice.token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, resp.Result.(map[string]any)["count"])

	code, _ = s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/blocks/%d", bob.id), alice.token, nil)
	require.Equal(t, http.StatusCreated, code)

	code, resp = s.do(t, http.MethodGet, "/api/v1/networks/count", alice.token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 0, resp.Result.(map[string]any)["count"])
}

func openRoom(t *testing.T, s *testServer, a, b account) int64 {
	t.Helper()
	code, resp := s.do(t, http.MethodPost, "/api/v1/chatting-rooms/check-or-create", a.token, gin.H{"target_service_id": b.id})
	require.Equal(t, http.StatusOK, code, resp.Message)
	return int64(resp.Result.(map[string]any)["chatting_room_id"].(float64))
}

func TestChatFlow(t *testing.T) {
	s := newTestServer(t)
	alice, bob, eve := s.register(t, "alice"), s.register(t, "bob"), s.register(t, "eve")
	roomID := openRoom(t, s, alice, bob)
	assert.Equal(t, roomID, openRoom(t, s, bob, alice))

	msgs := fmt.Sprintf("/api/v1/chatting-rooms/%d/messages", roomID)
	code, resp := s.do(t, http.MethodPost, msgs, alice.token, gin.H{"detail_message": "hi bob", "type": "TEXT"})
	require.Equal(t, http.StatusCreated, code, resp.Message)
	assert.Equal(t, "alice", resp.Result.(map[string]any)["sender_name"])

	code, _ = s.do(t, http.MethodPost, msgs, alice.token, gin.H{"detail_message": "  "})
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = s.do(t, http.MethodGet, msgs, bob.token, nil)
	require.Equal(t, http.StatusOK, code)
	list := resp.Result.(map[string]any)["messages"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "hi bob", list[0].(map[string]any)["detail_message"])

	code, _ = s.do(t, http.MethodGet, msgs, eve.token, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, resp = s.do(t, http.MethodGet, "/api/v1/chatting-rooms", bob.token, nil)
	require.Equal(t, http.StatusOK, code)
	rooms := resp.Result.(map[string]any)["chatting_rooms"].([]any)
	require.Len(t, rooms, 1)
	assert.Equal(t, true, rooms[0].(map[string]any)["has_unread"])
}

func TestSendMessageOnlyAcceptsText(t *testing.T) {
	s := newTestServer(t)
	alice, bob := s.register(t, "alice"), s.register(t, "bob")
	msgs := fmt.Sprintf("/api/v1/chatting-rooms/%d/messages", openRoom(t, s, alice, bob))

	for _, typ := range []string{"SYSTEM", "COFFEECHAT", "BOGUS"} {
		code, resp := s.do(t, http.MethodPost, msgs, alice.token, gin.H{"detail_message": "커피챗이 수락되었습니다", "type": typ})
		assert.Equal(t, http.StatusBadRequest, code, typ)
		assert.Equal(t, apperr.CodeBadRequest, errorCode(resp), typ)
	}

	code, resp := s.do(t, http.MethodPost, msgs, alice.token, gin.H{"detail_message": "plain"})
	require.Equal(t, http.StatusCreated, code, resp.Message)
	assert.Equal(t, "TEXT", resp.Result.(map[string]any)["type"])

	code, resp = s.do(t, http.MethodGet, msgs, bob.token, nil)
	require.Equal(t, http.StatusOK, code)
	list := resp.Result.(map[string]any)["messages"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "plain", list[0].(map[string]any)["detail_message"])
}

func TestCoffeechatFlow(t *testing.T) {
	s := newTestServer(t)
	alice, bob := s.register(t, "alice"), s.register(t, "bob")
	roomID := openRoom(t, s, alice, bob)

	code, resp := s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/chatting-rooms/%d/coffeechats", roomID), alice.token, gin.H{
		"title": "커피챗", "place": "강남역", "scheduled_at": time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, code, resp.Message)
	ccID := int64(resp.Result.(map[string]any)["coffeechat_id"].(float64))

	code, _ = s.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/coffeechats/%d/accept", ccID), alice.token, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/coffeechats/%d/accept", ccID), bob.token, nil)
	require.Equal(t, http.StatusOK, code)

	code, resp = s.do(t, http.MethodGet, "/api/v1/coffeechats/upcoming", alice.token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, resp.Result.(map[string]any)["coffeechats"].([]any), 1)
}

func TestFeedNotifications(t *testing.T) {
	s := newTestServer(t)
	alice, bob := s.register(t, "alice"), s.register(t, "bob")

	code, resp := s.do(t, http.MethodPost, "/api/v1/feeds", alice.token, gin.H{"content": "첫 글"})
	require.Equal(t, http.StatusCreated, code, resp.Message)
	feedID := int64(resp.Result.(map[string]any)["feed_id"].(float64))

	code, _ = s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/feeds/%d/comments", feedID), bob.token, gin.H{"content": "좋아요"})
	require.Equal(t, http.StatusCreated, code)
	code, resp = s.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/feeds/%d/like", feedID), bob.token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, resp.Result.(map[string]any)["liked"])

	code, resp = s.do(t, http.MethodGet, "/api/v1/notifications/unread-count", alice.token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 2, resp.Result.(map[string]any)["count"])

	code, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/feeds/%d", feedID), bob.token, nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestRoomSocketReceivesMessages(t *testing.T) {
	s := newTestServer(t)
	alice, bob := s.register(t, "alice"), s.register(t, "bob")
	roomID := openRoom(t, s, alice, bob)

	srv := httptest.NewServer(s.router)
	t.Cleanup(srv.Close)

	url := fmt.Sprintf("ws%s/api/v1/chatting-rooms/%d/ws?token=%s", strings.TrimPrefix(srv.URL, "http"), roomID, bob.token)
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })

	channel := realtime.Channel(roomID)
	require.Eventually(t, func() bool {
		return s.mr.PubSubNumSub(channel)[channel] > 0
	}, 2*time.Second, 10*time.Millisecond)

	code, _ := s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/chatting-rooms/%d/messages", roomID), alice.token,
		gin.H{"detail_message": "실시간", "type": "TEXT"})
	require.Equal(t, http.StatusCreated, code)

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(3*time.Second)))
	var ev realtime.Event
	require.NoError(t, ws.ReadJSON(&ev))
	assert.Equal(t, realtime.EventMessage, ev.Type)
	assert.Equal(t, roomID, ev.RoomID)
	require.NotNil(t, ev.Message)
	assert.Equal(t, "실시간", ev.Message.DetailMessage)
}

func TestRoomSocketRejectsOutsiders(t *testing.T) {
	s := newTestServer(t)
	alice, bob, eve := s.register(t, "alice"), s.register(t, "bob"), s.register(t, "eve")
	roomID := openRoom(t, s, alice, bob)

	code, _ := s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/chatting-rooms/%d/ws", roomID), eve.token, nil)
	assert.Equal(t, http.StatusForbidden, code)
}
