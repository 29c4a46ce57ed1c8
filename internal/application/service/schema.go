package service

import "github.com/garyjia/case-tracker/internal/domain/entity"

// FieldKind is the kind of value a form field expects
type FieldKind string

const (
	FieldCheckbox FieldKind = "checkbox"
	FieldSelect   FieldKind = "select"
	FieldText     FieldKind = "text"
	FieldTextarea FieldKind = "textarea"
	FieldString   FieldKind = "string"
)

// FieldSpec describes one input the presentation layer should render
type FieldSpec struct {
	QuestionID string    `json:"question_id"`
	FieldKey   string    `json:"field_key"`
	Label      string    `json:"label"`
	Help       string    `json:"help,omitempty"`
	Kind       FieldKind `json:"kind"`
	Required   bool      `json:"required"`
	Pattern    string    `json:"pattern,omitempty"`
	Options    []string  `json:"options,omitempty"`
}

// Schema lists the input fields of tmpl in question order. Questions must be loaded.
func Schema(tmpl *entity.WorkflowTemplate) []FieldSpec {
	fields := make([]FieldSpec, 0, len(tmpl.Questions))
	for _, q := range tmpl.Questions {
		spec := FieldSpec{
			QuestionID: q.ID,
			FieldKey:   q.FieldKey(),
			Label:      q.Text,
			Help:       q.Help,
			Kind:       kindOf(q.Type),
			Required:   q.IsRequired,
			Pattern:    q.Type.Pattern(),
		}
		if spec.Kind == FieldSelect {
			spec.Options = q.Type.Options()
		}
		fields = append(fields, spec)
	}
	return fields
}

func kindOf(qt *entity.QuestionType) FieldKind {
	if qt == nil {
		return FieldString
	}
	switch qt.Type {
	case entity.QuestionTypeCheckbox:
		return FieldCheckbox
	case entity.QuestionTypeSelect:
		return FieldSelect
	case entity.QuestionTypeText:
		return FieldText
	case entity.QuestionTypeTextarea:
		return FieldTextarea
	default:
		return FieldString
	}
}
