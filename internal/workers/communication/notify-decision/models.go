// internal/workers/communication/notify-decision/models.go
package notifydecision

const (
	ChannelSMS   = "sms"
	ChannelEmail = "email"
)

type Applicant struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	CNIC        string `json:"cnic"`
	PhoneNumber string `json:"phoneNumber"`
	City        string `json:"city"`
}

type Evaluation struct {
	EvaluationID  string  `json:"evaluationId"`
	FinalScore    float64 `json:"finalScore"`
	Decision      string  `json:"decision"`
	PolicyVersion string  `json:"policyVersion"`
	Reason        string  `json:"reason,omitempty"`
}

type Input struct {
	ApplicantInfo Applicant  `json:"applicantInfo"`
	Evaluation    Evaluation `json:"evaluation"`
	ApplicantID   int64      `json:"applicantId,omitempty"`
}

type ChannelResult struct {
	Channel   string `json:"channel"`
	Sent      bool   `json:"sent"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

type Output struct {
	SMSSent   bool            `json:"smsSent"`
	EmailSent bool            `json:"emailSent"`
	Channels  []ChannelResult `json:"channels"`
}
