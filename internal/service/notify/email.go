package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/ybthummar/MathFlowAI/internal/domain"
)

type emailData struct {
	EventName  string
	EventDate  string
	EventVenue string
	Team       domain.Team
	Leader     domain.Member
	StatusLine string
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<body>
  <h1>{{.EventName}} - Registration Confirmed</h1>
  <p>Dear {{.Leader.Name}},</p>
  <p>Your team has been successfully registered for {{.EventName}}.</p>
  <table>
    <tr><td>Registration ID</td><td><strong>{{.Team.RegistrationID}}</strong></td></tr>
    <tr><td>Team Name</td><td>{{.Team.TeamName}}</td></tr>
    <tr><td>Department</td><td>{{.Team.Department}}</td></tr>
    <tr><td>Team Size</td><td>{{len .Team.Members}} members</td></tr>
  </table>
  <h2>Team Members</h2>
  <ol>
    {{range .Team.Members}}<li>{{.Name}} ({{.RollNo}}){{if .IsLeader}} - Leader{{end}}</li>
    {{end}}
  </ol>
  <p><strong>Event:</strong> {{.EventDate}}<br>
     <strong>Venue:</strong> {{.EventVenue}}</p>
  <p>Save your registration ID and bring the attached PDF receipt along with
     valid college ID cards on event day.</p>
  <p>- The {{.EventName}} organizing team</p>
</body>
</html>`))

var statusTmpl = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html>
<body>
  <h1>{{.EventName}} - Registration Update</h1>
  <p>Dear {{.Leader.Name}},</p>
  <p>{{.StatusLine}}</p>
  <table>
    <tr><td>Registration ID</td><td><strong>{{.Team.RegistrationID}}</strong></td></tr>
    <tr><td>Team Name</td><td>{{.Team.TeamName}}</td></tr>
    <tr><td>Status</td><td><strong>{{.Team.Status}}</strong></td></tr>
  </table>
  <p>- The {{.EventName}} organizing team</p>
</body>
</html>`))

func statusLine(teamName string, status domain.TeamStatus) string {
	switch status {
	case domain.StatusApproved:
		return fmt.Sprintf("Great news! Team %q has been approved for the event.", teamName)
	case domain.StatusRejected:
		return fmt.Sprintf("We are sorry: the registration of team %q could not be accepted.", teamName)
	case domain.StatusWaitlist:
		return fmt.Sprintf("Team %q has been placed on the waitlist. We will notify you if a slot opens.", teamName)
	default:
		return fmt.Sprintf("The status of team %q is now %s.", teamName, status)
	}
}

func renderEmail(tmpl *template.Template, data emailData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s email: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
