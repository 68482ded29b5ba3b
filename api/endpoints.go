package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"
)

func seg(s string) string { return url.PathEscape(s) }

/*
====================================================================================
PUSH
====================================================================================
*/

// RegisterPushToken records a device push token for the signed-in user. Without a stored
// session it returns ErrAuthRequired and sends nothing.
func (c *Client) RegisterPushToken(ctx context.Context, pushToken string) (json.RawMessage, error) {
	token := c.bearer(ctx)
	if token == "" {
		return nil, ErrAuthRequired
	}
	return c.raw(ctx, call{
		method:   http.MethodPost,
		path:     "/api/register-push-token",
		token:    token,
		body:     map[string]string{"token": pushToken},
		fallback: "Не удалось зарегистрировать push-токен",
	})
}

/*
====================================================================================
DIRECTORY
====================================================================================
*/

func (c *Client) Departments(ctx context.Context) (json.RawMessage, error) {
	return c.raw(ctx, call{method: http.MethodGet, path: "/api/departments", fallback: "Ошибка при загрузке кафедр"})
}

func (c *Client) Professions(ctx context.Context, departmentID string) (json.RawMessage, error) {
	return c.raw(ctx, call{
		method:   http.MethodGet,
		path:     "/api/professions/" + seg(departmentID),
		fallback: "Ошибка при загрузке профессий",
	})
}

func (c *Client) GroupsByProfession(ctx context.Context, professionID string) (json.RawMessage, error) {
	return c.raw(ctx, call{
		method:   http.MethodGet,
		path:     "/api/groups/" + seg(professionID),
		fallback: "Ошибка при загрузке групп",
	})
}

func (c *Client) Positions(ctx context.Context) (json.RawMessage, error) {
	return c.raw(ctx, call{method: http.MethodGet, path: "/api/positions", fallback: "Ошибка при загрузке должностей"})
}

// CreateStudent posts an opaque student record.
func (c *Client) CreateStudent(ctx context.Context, student any) (json.RawMessage, error) {
	return c.raw(ctx, call{
		method:   http.MethodPost,
		path:     "/api/create-student",
		body:     student,
		fallback: "Ошибка при создании студента",
	})
}

func (c *Client) CreateStaff(ctx context.Context, staff Staff) (json.RawMessage, error) {
	return c.raw(ctx, call{
		method:   http.MethodPost,
		path:     "/api/create-staff",
		body:     staff,
		fallback: "Ошибка при создании сотрудника",
	})
}

func (c *Client) MassRegister(ctx context.Context, batch MassRegistration) (json.RawMessage, error) {
	return c.raw(ctx, call{
		method:   http.MethodPost,
		path:     "/api/mass-register",
		body:     batch,
		fallback: "Ошибка массовой регистрации",
	})
}

/*
====================================================================================
STUDENT
====================================================================================
*/

func (c *Client) Stats(ctx context.Context) (json.RawMessage, error) {
	return c.raw(ctx, call{method: http.MethodGet, path: "/api/stats", fallback: "Не удалось загрузить статистику"})
}

func (c *Client) Profile(ctx context.Context, userID string) (json.RawMessage, error) {
	return c.raw(ctx, call{
		method:   http.MethodGet,
		path:     "/api/profile/" + seg(userID),
		fallback: "Не удалось загрузить профиль",
	})
}

func (c *Client) Marks(ctx context.Context, userID string) (json.RawMessage, error) {
	return c.raw(ctx, call{
		method:   http.MethodGet,
		path:     "/api/marks/" + seg(userID),
		fallback: "Не удалось загрузить оценки",
	})
}

func (c *Client) Schedule(ctx context.Context, groupID string) (json.RawMessage, error) {
	return c.raw(ctx, call{
		method:   http.MethodGet,
		path:     "/api/schedule/" + seg(groupID),
		fallback: "Не удалось загрузить расписание",
	})
}

/*
====================================================================================
AI ASSISTANT
====================================================================================
*/

func (c *Client) SendChatMessage(ctx context.Context, userID, message string) (json.RawMessage, error) {
	return c.raw(ctx, call{
		method:   http.MethodPost,
		path:     "/api/ai/chat",
		body:     map[string]string{"userId": userID, "message": message},
		fallback: "Ошибка чата",
	})
}

func (c *Client) ChatHistory(ctx context.Context, userID string) (json.RawMessage, error) {
	return c.raw(ctx, call{
		method:   http.MethodGet,
		path:     "/api/ai/history/" + seg(userID),
		fallback: "Ошибка загрузки истории",
	})
}

/*
====================================================================================
VICE-DEAN ADMINISTRATION
====================================================================================
*/

func (c *Client) FacultyStats(ctx context.Context) (json.RawMessage, error) {
	return c.raw(ctx, call{method: http.MethodGet, path: "/api/admin/faculty-stats", fallback: "Ошибка загрузки статистики"})
}

func (c *Client) RiskAnalysis(ctx context.Context) (json.RawMessage, error) {
	return c.raw(ctx, call{method: http.MethodGet, path: "/api/admin/risk-analysis", fallback: "Ошибка загрузки AI-анализа"})
}

func (c *Client) AdminGroups(ctx context.Context) (json.RawMessage, error) {
	return c.raw(ctx, call{method: http.MethodGet, path: "/api/admin/groups", fallback: "Ошибка при загрузке групп"})
}

// DeleteScheduleItem removes one lesson from the timetable.
func (c *Client) DeleteScheduleItem(ctx context.Context, scheduleID string) error {
	_, err := c.raw(ctx, call{
		method:   http.MethodDelete,
		path:     "/api/admin/schedule/" + seg(scheduleID),
		fallback: "Ошибка при удалении",
	})
	return err
}

func (c *Client) CreateLesson(ctx context.Context, lesson Lesson) (json.RawMessage, error) {
	return c.raw(ctx, call{
		method:   http.MethodPost,
		path:     "/api/admin/create-lesson",
		body:     lesson,
		fallback: "Ошибка при создании занятия",
	})
}

// CheckRoomAvailability reports the backend's isAvailable flag for a room, weekday and
// time slot. A reply without the flag counts as unavailable.
func (c *Client) CheckRoomAvailability(ctx context.Context, roomID string, day int, slotID string) (bool, error) {
	body, err := c.raw(ctx, call{
		method: http.MethodGet,
		path:   "/api/admin/check-room",
		query: map[string]string{
			"room_id": roomID,
			"day":     strconv.Itoa(day),
			"slot_id": slotID,
		},
		fallback: "Ошибка проверки аудитории",
	})
	if err != nil {
		return false, err
	}
	return gjson.GetBytes(body, "isAvailable").Bool(), nil
}

// GenerateSchedule asks the backend to rebuild the timetable. It requires a session.
func (c *Client) GenerateSchedule(ctx context.Context) (json.RawMessage, error) {
	token := c.bearer(ctx)
	if token == "" {
		return nil, ErrAuthRequired
	}
	return c.raw(ctx, call{
		method:   http.MethodPost,
		path:     "/api/generate-schedule",
		token:    token,
		fallback: "Ошибка при генерации расписания",
	})
}

/*
====================================================================================
TEACHER
====================================================================================
*/

func (c *Client) TeacherSchedule(ctx context.Context, teacherID string) (json.RawMessage, error) {
	return c.raw(ctx, call{
		method:   http.MethodGet,
		path:     "/api/teacher/schedule/" + seg(teacherID),
		fallback: "Не удалось загрузить расписание преподавателя",
	})
}

func (c *Client) TeacherDashboard(ctx context.Context, teacherID string) (json.RawMessage, error) {
	return c.raw(ctx, call{
		method:   http.MethodGet,
		path:     "/api/teacher/dashboard/" + seg(teacherID),
		fallback: "Не удалось загрузить панель преподавателя",
	})
}

func (c *Client) LessonStudents(ctx context.Context, scheduleID string) (json.RawMessage, error) {
	return c.raw(ctx, call{
		method:   http.MethodGet,
		path:     "/api/teacher/lesson-students/" + seg(scheduleID),
		fallback: "Не удалось загрузить список студентов",
	})
}

// MarkAttendance posts an opaque attendance sheet.
func (c *Client) MarkAttendance(ctx context.Context, sheet any) (json.RawMessage, error) {
	return c.raw(ctx, call{
		method:   http.MethodPost,
		path:     "/api/teacher/mark-attendance",
		body:     sheet,
		fallback: "Не удалось отметить посещаемость",
	})
}

func (c *Client) SaveWeeklyMarks(ctx context.Context, marks WeeklyMarks) (json.RawMessage, error) {
	return c.raw(ctx, call{
		method:   http.MethodPost,
		path:     "/api/teacher/save-weekly-marks",
		body:     marks,
		fallback: "Не удалось сохранить оценки",
	})
}

func (c *Client) TeacherReports(ctx context.Context) (json.RawMessage, error) {
	return c.raw(ctx, call{method: http.MethodGet, path: "/api/teacher/reports", fallback: "Не удалось загрузить отчеты"})
}
