package school

import (
	"math"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/masomo-console/core"
)

var (
	marksRangeTag  = "marksrange"
	marksRangeText = "marks must be between 0 and 100"

	ageRangeTag  = "agerange"
	ageRangeText = "age must be between 1 and 100"
)

// InitValidators registers the school validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(gradeStructValidation, NewGrade{})
	validate.RegisterStructValidation(studentStructValidation, NewStudent{})
	core.RegisterCustomTranslation(validate, translator, marksRangeTag, marksRangeText)
	core.RegisterCustomTranslation(validate, translator, ageRangeTag, ageRangeText)
}

// gradeStructValidation reports out of range marks with a single readable message.
func gradeStructValidation(sl validator.StructLevel) {
	g := sl.Current().Interface().(NewGrade)
	if g.Marks != nil && (math.IsNaN(*g.Marks) || *g.Marks < 0 || *g.Marks > 100) {
		sl.ReportError(*g.Marks, "marks", "Marks", marksRangeTag, "")
	}
}

func studentStructValidation(sl validator.StructLevel) {
	s := sl.Current().Interface().(NewStudent)
	if s.Age < 0 || s.Age > 100 {
		sl.ReportError(s.Age, "age", "Age", ageRangeTag, "")
	}
}
