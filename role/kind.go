package role

// Kind is the closed set of roles the client understands.
type Kind uint8

const (
	// Unknown marks a value that matched no registered rule.
	Unknown Kind = iota
	Dean
	ViceDean
	Teacher
	Student
)

// String returns a stable ASCII name used in logs and route tables.
func (k Kind) String() string {
	switch k {
	case Dean:
		return "dean"
	case ViceDean:
		return "vice-dean"
	case Teacher:
		return "teacher"
	case Student:
		return "student"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of [Kind.String].
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "dean":
		return Dean, true
	case "vice-dean":
		return ViceDean, true
	case "teacher":
		return Teacher, true
	case "student":
		return Student, true
	default:
		return Unknown, false
	}
}

// Variant distinguishes the teacher sub-roles. It is VariantNone for every other Kind.
type Variant uint8

const (
	VariantNone Variant = iota
	// VariantLecturer is "преподаватель (лектор)".
	VariantLecturer
	// VariantPractice is "преподаватель (практик)".
	VariantPractice
	// VariantOther is any other value containing "преподаватель".
	VariantOther
)

func (v Variant) String() string {
	switch v {
	case VariantLecturer:
		return "lecturer"
	case VariantPractice:
		return "practice-instructor"
	case VariantOther:
		return "other"
	default:
		return ""
	}
}
