package models

// Field names a Profile attribute independently of how a storage engine
// spells it.
type Field string

const (
	FieldID           Field = "id"
	FieldEmail        Field = "email"
	FieldFullName     Field = "fullName"
	FieldAccountType  Field = "accountType"
	FieldMentorName   Field = "mentorName"
	FieldFunFacts     Field = "funFacts"
	FieldPoints       Field = "points"
	FieldProfilePic   Field = "profilePic"
	FieldPasswordHash Field = "passwordHash"
)

// Assignment sets one field to a value.
type Assignment struct {
	Field Field
	Value any
}

// Names returns the assigned field names in order.
func Names(set []Assignment) []string {
	names := make([]string, 0, len(set))
	for _, a := range set {
		names = append(names, string(a.Field))
	}
	return names
}
