package registration

// MemberInput is a single submitted participant.
type MemberInput struct {
	Name   string `json:"name" validate:"required,min=2,max=100"`
	Email  string `json:"email" validate:"required,email"`
	Phone  string `json:"phone" validate:"required,inphone"`
	RollNo string `json:"rollNo" validate:"required,max=20"`
	Year   string `json:"year" validate:"required,eventyear"`
}

// RegistrationInput is the raw registration payload. The first member in
// submission order becomes the team leader.
type RegistrationInput struct {
	TeamName      string        `json:"teamName" validate:"required,min=3,max=50,teamname"`
	Department    string        `json:"department" validate:"required,department"`
	LeaderEmail   string        `json:"leaderEmail" validate:"required,email"`
	LeaderPhone   string        `json:"leaderPhone" validate:"required,inphone"`
	Members       []MemberInput `json:"members" validate:"required,min=3,max=5,dive"`
	AgreedToRules bool          `json:"agreedToRules" validate:"eq=true"`
}

// MemberEmails collects the submitted member emails in order.
func (in RegistrationInput) MemberEmails() []string {
	emails := make([]string, 0, len(in.Members))
	for _, m := range in.Members {
		emails = append(emails, m.Email)
	}
	return emails
}
