package models

// Record is one dataset row viewed through the grading columns.
// Raw fields are copied verbatim from the input table; derived fields are
// filled by the normalizer and never written back to the raw fields.
type Record struct {
	Index int `json:"index"`

	StipendRaw            string `json:"stipendRaw"`
	InternshipDurationRaw string `json:"internshipDurationRaw"`
	CourseStartDate       string `json:"courseStartDate"`
	CourseEndDate         string `json:"courseEndDate"`
	CourseTitle           string `json:"courseTitle"`

	Stipend         Optional[float64] `json:"-"`
	InternshipWeeks Optional[int]     `json:"-"`
	CourseWeeks     Optional[int]     `json:"-"`
}

// Outcome is the grading result for a single record.
type Outcome struct {
	Grade      Optional[int]
	TotalMarks Optional[int]
	Remark     string
}
