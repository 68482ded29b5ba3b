package api

import "encoding/json"

// Identity is the authenticated user record returned by the backend.
type Identity struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	GroupID  string `json:"group_id,omitempty"`
}

// Clone returns a copy, or nil for a nil receiver.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionToken carries the opaque bearer token.
type SessionToken struct {
	AccessToken string `json:"access_token"`
}

// LoginResponse is the decoded login reply. Raw holds the body exactly as received.
type LoginResponse struct {
	User    *Identity       `json:"user"`
	Session *SessionToken   `json:"session"`
	Raw     json.RawMessage `json:"-"`
}

// Token returns the access token, or "" when the reply carried no session.
func (r *LoginResponse) Token() string {
	if r == nil || r.Session == nil {
		return ""
	}
	return r.Session.AccessToken
}

// Lesson is the manual lesson payload used by the vice-dean schedule editor.
type Lesson struct {
	SubjectID  string `json:"subject_id"`
	TeacherID  string `json:"teacher_id"`
	RoomID     string `json:"room_id"`
	GroupID    string `json:"group_id"`
	DayOfWeek  int    `json:"day_of_week"`
	TimeSlotID string `json:"time_slot_id"`
	IsLecture  bool   `json:"is_lecture"`
}

// Staff is the payload for creating a staff member.
type Staff struct {
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	PositionID   string `json:"position_id"`
	DepartmentID string `json:"department_id"`
}

// MassRegistration registers a batch of students into one profession and course.
type MassRegistration struct {
	ProfessionID string            `json:"profession_id"`
	Course       int               `json:"course"`
	Prefix       string            `json:"prefix"`
	Students     []json.RawMessage `json:"students"`
}

// WeeklyMarks is the teacher's weekly grade sheet.
type WeeklyMarks struct {
	SubjectID  string            `json:"subject_id"`
	WeekNumber int               `json:"week_number"`
	Marks      []json.RawMessage `json:"marks"`
}
