package reconcile

// Field is a canonical column of a grade sheet.
type Field string

const (
	FieldIdentifier     Field = "identifier"
	FieldFirstName      Field = "first_name"
	FieldLastName       Field = "last_name"
	FieldClass          Field = "class"
	FieldTerm           Field = "term"
	FieldMarkEffort     Field = "mark_effort"
	FieldMarkAttainment Field = "mark_attainment"
	FieldMarkHomework   Field = "mark_homework"
	FieldMarkBehaviour  Field = "mark_behaviour"
	FieldComment        Field = "comment"
)

// FieldSpec describes how a canonical field is recognised in a sheet header.
type FieldSpec struct {
	Field    Field
	Label    string   // Display name used in messages and templates
	Required bool     // Upload fails if the field cannot be bound
	Synonyms []string // Lower-case, single-spaced header spellings, most specific first
}

// FieldSpecs lists every canonical field in resolution order.
var FieldSpecs = []FieldSpec{
	{
		Field:    FieldIdentifier,
		Label:    "Student ID",
		Required: true,
		Synonyms: []string{"student id", "student_id", "studentid", "student code", "student number", "id"},
	},
	{
		Field:    FieldFirstName,
		Label:    "First Name",
		Synonyms: []string{"first name", "first_name", "firstname", "given name", "first"},
	},
	{
		Field:    FieldLastName,
		Label:    "Last Name",
		Synonyms: []string{"last name", "last_name", "lastname", "surname", "family name", "last"},
	},
	{
		Field:    FieldClass,
		Label:    "Class",
		Synonyms: []string{"class", "class name", "course", "subject", "group"},
	},
	{
		Field:    FieldTerm,
		Label:    "Term",
		Synonyms: []string{"term", "semester", "period"},
	},
	{
		Field:    FieldMarkEffort,
		Label:    "Effort",
		Synonyms: []string{"effort", "effort grade"},
	},
	{
		Field:    FieldMarkAttainment,
		Label:    "Attainment",
		Synonyms: []string{"attainment", "attainment grade", "grade", "level"},
	},
	{
		Field:    FieldMarkHomework,
		Label:    "Homework",
		Synonyms: []string{"homework", "homework grade"},
	},
	{
		Field:    FieldMarkBehaviour,
		Label:    "Behaviour",
		Synonyms: []string{"behaviour", "behavior", "conduct"},
	},
	{
		Field:    FieldComment,
		Label:    "Comment",
		Synonyms: []string{"comment", "comments", "teacher comment", "remarks", "notes"},
	},
}

// MarkFields are the independent free-text grade columns, in display order.
var MarkFields = []Field{
	FieldMarkEffort,
	FieldMarkAttainment,
	FieldMarkHomework,
	FieldMarkBehaviour,
}

// SpecFor returns the spec for a field.
func SpecFor(f Field) (FieldSpec, bool) {
	for _, spec := range FieldSpecs {
		if spec.Field == f {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

// Label returns the display name of a field, or the raw field key if unknown.
func (f Field) Label() string {
	if spec, ok := SpecFor(f); ok {
		return spec.Label
	}
	return string(f)
}
