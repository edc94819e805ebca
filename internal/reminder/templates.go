package reminder

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/enockm/productivity-tracker/internal/model"
)

// Email templates. html/template escapes user-supplied titles and
// descriptions, so a task named "<script>" renders inert.

var taskTemplate = template.Must(template.New("tasks").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #2563eb;">Hello {{.Name}}! 👋</h2>
  <p>You have <strong>{{len .Tasks}}</strong> task(s) that need your attention:</p>
  <div style="background: #f8fafc; padding: 20px; border-radius: 8px; margin: 20px 0;">
    {{range .Tasks}}
    <div style="background: white; padding: 15px; margin: 10px 0; border-radius: 6px; border-left: 4px solid #3b82f6;">
      <h3 style="margin: 0 0 10px 0; color: #1e40af;">{{.Title}}</h3>
      <p style="margin: 5px 0; color: #6b7280;">{{if .Description}}{{.Description}}{{else}}No description{{end}}</p>
      {{if .DueDate}}<p style="margin: 5px 0; font-weight: bold; color: #dc2626;">Due: {{.DueDate.Format "Jan 2, 2006"}}</p>{{end}}
    </div>
    {{end}}
  </div>
  <p>Stay productive! 🚀</p>
</div>
`))

var goalTemplate = template.Must(template.New("goals").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #059669;">Hello {{.Name}}! 🌟</h2>
  <p>Don't forget about your important goals:</p>
  <div style="background: #f0fdf4; padding: 20px; border-radius: 8px; margin: 20px 0;">
    {{range .Goals}}
    <div style="background: white; padding: 15px; margin: 10px 0; border-radius: 6px; border-left: 4px solid #10b981;">
      <h3 style="margin: 0 0 10px 0; color: #047857;">{{.Title}}</h3>
      <div style="background: #e5e7eb; height: 10px; border-radius: 5px; margin: 10px 0;">
        <div style="background: #10b981; height: 100%; width: {{.Progress}}%; border-radius: 5px;"></div>
      </div>
      <p style="margin: 5px 0; color: #6b7280;">Progress: {{.Progress}}%</p>
      <p style="margin: 5px 0; font-weight: bold; color: #f59e0b;">Due: {{.DueDate.Format "Jan 2, 2006"}}</p>
    </div>
    {{end}}
  </div>
  <p>You've got this! Keep making progress! 💪</p>
</div>
`))

var habitTemplate = template.Must(template.New("habits").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #7c3aed;">Hello {{.Name}}! ⚡</h2>
  <p>Time to maintain your positive habits:</p>
  <div style="background: #faf5ff; padding: 20px; border-radius: 8px; margin: 20px 0;">
    {{range .Habits}}
    <div style="background: white; padding: 15px; margin: 10px 0; border-radius: 6px; border-left: 4px solid #8b5cf6;">
      <h3 style="margin: 0 0 10px 0; color: #6d28d9;">{{.Name}}</h3>
      <p style="margin: 5px 0; color: #6b7280;">{{if .Description}}{{.Description}}{{else}}Keep building this habit!{{end}}</p>
    </div>
    {{end}}
  </div>
  <p>Consistency is key! 🗝️</p>
</div>
`))

var weeklyTemplate = template.Must(template.New("weekly").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #1f2937;">Weekly Progress Report 📈</h2>
  <p>Hello {{.Name}}!</p>
  <p>Here's what you accomplished this week:</p>
  <div style="background: #f9fafb; padding: 20px; border-radius: 8px; margin: 20px 0;">
    <div style="display: flex; justify-content: space-between; margin: 10px 0;">
      <span>✅ Tasks Completed:</span>
      <strong>{{.CompletedTasks}}</strong>
    </div>
    <div style="display: flex; justify-content: space-between; margin: 10px 0;">
      <span>🎯 Goals Completed:</span>
      <strong>{{.CompletedGoals}}</strong>
    </div>
    <div style="display: flex; justify-content: space-between; margin: 10px 0;">
      <span>🚀 Average Goal Progress:</span>
      <strong>{{.AverageProgress}}%</strong>
    </div>
    <div style="display: flex; justify-content: space-between; margin: 10px 0;">
      <span>🎯 Active Goals:</span>
      <strong>{{.ActiveGoals}}</strong>
    </div>
  </div>
  <p>Keep up the great work! 🌟</p>
</div>
`))

type taskEmailData struct {
	Name  string
	Tasks []model.Task
}

type goalEmailData struct {
	Name  string
	Goals []model.Goal
}

type habitEmailData struct {
	Name   string
	Habits []model.Habit
}

type weeklyEmailData struct {
	Name            string
	CompletedTasks  int
	CompletedGoals  int
	AverageProgress int
	ActiveGoals     int
}

func renderTemplate(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("reminder: rendering %s email: %w", t.Name(), err)
	}
	return buf.String(), nil
}

// greeting picks the friendliest available form of address.
func greeting(u *model.User) string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}
