package mockapi

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/MrEthical07/goCampus/jwt"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type lessonRecord struct {
	ID         string `json:"id"`
	SubjectID  string `json:"subject_id" binding:"required"`
	TeacherID  string `json:"teacher_id" binding:"required"`
	RoomID     string `json:"room_id" binding:"required"`
	GroupID    string `json:"group_id" binding:"required"`
	DayOfWeek  int    `json:"day_of_week" binding:"min=1,max=6"`
	TimeSlotID string `json:"time_slot_id" binding:"required"`
	IsLecture  bool   `json:"is_lecture"`
}

type chatRequest struct {
	UserID  string `json:"userId" binding:"required"`
	Message string `json:"message" binding:"required"`
}

type chatMessage struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	SentAt  time.Time `json:"sent_at"`
}

/*
====================================================================================
AUTH
====================================================================================
*/

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "Введите email и пароль")
		return
	}

	u, err := s.users.authenticate(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, errUnknownUser) || errors.Is(err, errBadPassword) {
			abort(c, http.StatusUnauthorized, "Неверный email или пароль")
			return
		}
		abort(c, http.StatusInternalServerError, "Ошибка сервера")
		return
	}

	token, err := s.tokens.CreateAccess(jwt.Subject{
		UserID:   u.ID,
		Email:    u.Email,
		Role:     u.Role,
		FullName: u.FullName,
		GroupID:  u.GroupID,
	})
	if err != nil {
		s.log.Error("issue token", "error", err)
		abort(c, http.StatusInternalServerError, "Ошибка сервера")
		return
	}

	s.log.Info("login", "user_id", u.ID, "role", u.Role)
	c.JSON(http.StatusOK, gin.H{
		"user": u,
		"session": gin.H{
			"access_token": token,
			"token_type":   "bearer",
			"expires_in":   int(s.cfg.AccessTTL.Seconds()),
		},
	})
}

func (s *Server) me(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

func (s *Server) registerPushToken(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "Токен не указан")
		return
	}
	u := currentUser(c)

	s.mu.Lock()
	s.pushTokens[u.ID] = req.Token
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// PushToken returns the push token registered for userID.
func (s *Server) PushToken(userID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, ok := s.pushTokens[userID]
	return tok, ok
}

/*
====================================================================================
DIRECTORY
====================================================================================
*/

func (s *Server) departments(c *gin.Context) {
	c.JSON(http.StatusOK, []gin.H{
		{"id": "d-1", "name": "Информационные системы"},
		{"id": "d-2", "name": "Прикладная математика"},
	})
}

func (s *Server) positions(c *gin.Context) {
	c.JSON(http.StatusOK, []gin.H{
		{"id": "p-1", "name": "Преподаватель (лектор)"},
		{"id": "p-2", "name": "Преподаватель (практик)"},
	})
}

func (s *Server) groups(c *gin.Context) {
	seen := map[string]bool{}
	for _, u := range s.users.list(func(u *user) bool { return u.GroupID != "" }) {
		seen[u.GroupID] = true
	}
	out := make([]gin.H, 0, len(seen))
	for id := range seen {
		out = append(out, gin.H{"id": id, "name": id})
	}
	sort.Slice(out, func(i, j int) bool { return out[i]["id"].(string) < out[j]["id"].(string) })
	c.JSON(http.StatusOK, out)
}

func (s *Server) stats(c *gin.Context) {
	students := len(s.users.list(func(u *user) bool { return u.GroupID != "" }))
	s.mu.Lock()
	lessons := len(s.lessons)
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{
		"students": students,
		"lessons":  lessons,
	})
}

func (s *Server) profile(c *gin.Context) {
	u, ok := s.users.get(c.Param("id"))
	if !ok {
		abort(c, http.StatusNotFound, "Профиль не найден")
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) marks(c *gin.Context) {
	if _, ok := s.users.get(c.Param("id")); !ok {
		abort(c, http.StatusNotFound, "Студент не найден")
		return
	}
	c.JSON(http.StatusOK, []gin.H{
		{"subject": "Базы данных", "week": 1, "mark": 5},
		{"subject": "Базы данных", "week": 2, "mark": 4},
	})
}

/*
====================================================================================
SCHEDULE
====================================================================================
*/

func (s *Server) seedLessons() {
	teachers := s.users.list(func(u *user) bool { return u.GroupID == "" })
	for _, u := range teachers {
		if u.Role != "Преподаватель (лектор)" {
			continue
		}
		rec := lessonRecord{
			ID:         uuid.NewString(),
			SubjectID:  "Базы данных",
			TeacherID:  u.ID,
			RoomID:     "301",
			GroupID:    "ИС-21",
			DayOfWeek:  1,
			TimeSlotID: "1",
			IsLecture:  true,
		}
		s.lessons[rec.ID] = rec
	}
}

func (s *Server) lessonsWhere(match func(lessonRecord) bool) []lessonRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]lessonRecord, 0, len(s.lessons))
	for _, l := range s.lessons {
		if match(l) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		return out[i].TimeSlotID < out[j].TimeSlotID
	})
	return out
}

func (s *Server) schedule(c *gin.Context) {
	group := c.Param("groupId")
	c.JSON(http.StatusOK, s.lessonsWhere(func(l lessonRecord) bool { return l.GroupID == group }))
}

func (s *Server) teacherSchedule(c *gin.Context) {
	id := c.Param("id")
	c.JSON(http.StatusOK, s.lessonsWhere(func(l lessonRecord) bool { return l.TeacherID == id }))
}

func (s *Server) checkRoom(c *gin.Context) {
	room := c.Query("room_id")
	slot := c.Query("slot_id")
	day, err := strconv.Atoi(c.Query("day"))
	if room == "" || slot == "" || err != nil {
		abort(c, http.StatusBadRequest, "Некорректные параметры")
		return
	}
	busy := s.lessonsWhere(func(l lessonRecord) bool {
		return l.RoomID == room && l.DayOfWeek == day && l.TimeSlotID == slot
	})
	c.JSON(http.StatusOK, gin.H{"isAvailable": len(busy) == 0})
}

func (s *Server) createLesson(c *gin.Context) {
	var rec lessonRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		abort(c, http.StatusBadRequest, "Заполните все поля занятия")
		return
	}
	rec.ID = uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.lessons {
		if l.RoomID == rec.RoomID && l.DayOfWeek == rec.DayOfWeek && l.TimeSlotID == rec.TimeSlotID {
			abort(c, http.StatusConflict, "Аудитория занята")
			return
		}
	}
	s.lessons[rec.ID] = rec
	c.JSON(http.StatusCreated, rec)
}

func (s *Server) deleteLesson(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	_, ok := s.lessons[id]
	delete(s.lessons, id)
	s.mu.Unlock()
	if !ok {
		abort(c, http.StatusNotFound, "Занятие не найдено")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) generateSchedule(c *gin.Context) {
	s.mu.Lock()
	n := len(s.lessons)
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"success": true, "lessons": n})
}

/*
====================================================================================
AI ASSISTANT
====================================================================================
*/

func (s *Server) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "Сообщение не может быть пустым")
		return
	}
	now := time.Now().UTC()
	reply := chatMessage{Role: "assistant", Content: "Принято: " + req.Message, SentAt: now}

	s.mu.Lock()
	s.chats[req.UserID] = append(s.chats[req.UserID],
		chatMessage{Role: "user", Content: req.Message, SentAt: now},
		reply,
	)
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"reply": reply.Content})
}

func (s *Server) chatHistory(c *gin.Context) {
	s.mu.Lock()
	history := append([]chatMessage(nil), s.chats[c.Param("id")]...)
	s.mu.Unlock()
	c.JSON(http.StatusOK, history)
}
