package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/epicevents/crm/internal/models"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	labelStyle  = lipgloss.NewStyle().Bold(true).Width(20)
	mutedStyle  = lipgloss.NewStyle().Faint(true)
)

// field is one line of a detail view.
type field struct {
	label string
	value string
}

func (a *App) renderTable(headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(a.out, mutedStyle.Render("No records found."))
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(a.out, t.Render())
}

func (a *App) renderFields(fields []field) {
	for _, f := range fields {
		fmt.Fprintln(a.out, labelStyle.Render(f.label)+f.value)
	}
}

func (a *App) amount(v float64) string {
	return a.printer.Sprintf("%.2f", v)
}

func contact(id *int64) string {
	if id == nil {
		return "unassigned"
	}
	return strconv.FormatInt(*id, 10)
}

func date(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(dateLayout)
}

func idText(v int64) string { return strconv.FormatInt(v, 10) }

func (a *App) printUsers(users []*models.User) {
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{idText(u.ID), u.FullName, u.Email, u.RoleName(), date(u.CreatedAt)})
	}
	a.renderTable([]string{"ID", "Name", "Email", "Role", "Created"}, rows)
}

func (a *App) printUser(u *models.User) {
	a.renderFields([]field{
		{"ID", idText(u.ID)},
		{"Name", u.FullName},
		{"Email", u.Email},
		{"Role", u.RoleName()},
		{"Created", date(u.CreatedAt)},
	})
}

func (a *App) printClients(clients []*models.Client) {
	rows := make([][]string, 0, len(clients))
	for _, c := range clients {
		rows = append(rows, []string{idText(c.ID), c.FullName, c.Email, c.Phone, c.CompanyName, contact(c.SalesContactID), date(c.LastUpdateDate)})
	}
	a.renderTable([]string{"ID", "Name", "Email", "Phone", "Company", "Sales contact", "Updated"}, rows)
}

func (a *App) printClient(c *models.Client) {
	a.renderFields([]field{
		{"ID", idText(c.ID)},
		{"Name", c.FullName},
		{"Email", c.Email},
		{"Phone", c.Phone},
		{"Company", c.CompanyName},
		{"Sales contact", contact(c.SalesContactID)},
		{"Created", date(c.CreationDate)},
		{"Last update", date(c.LastUpdateDate)},
	})
}

func (a *App) printContracts(contracts []*models.Contract) {
	rows := make([][]string, 0, len(contracts))
	for _, c := range contracts {
		rows = append(rows, []string{c.ID, idText(c.ClientID), a.amount(c.TotalAmount), a.amount(c.RemainingAmount), c.Status, contact(c.SalesContactID), date(c.CreationDate)})
	}
	a.renderTable([]string{"ID", "Client", "Total", "Remaining", "Status", "Sales contact", "Created"}, rows)
}

func (a *App) printContract(c *models.Contract) {
	a.renderFields([]field{
		{"ID", c.ID},
		{"Client", idText(c.ClientID)},
		{"Total amount", a.amount(c.TotalAmount)},
		{"Remaining amount", a.amount(c.RemainingAmount)},
		{"Status", c.Status},
		{"Sales contact", contact(c.SalesContactID)},
		{"Created", date(c.CreationDate)},
	})
}

func (a *App) printEvents(events []*models.Event) {
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		rows = append(rows, []string{idText(e.ID), e.Name, e.ContractID, idText(e.ClientID), date(e.StartDate), date(e.EndDate), e.Location, strconv.Itoa(e.Attendees), contact(e.SupportContactID)})
	}
	a.renderTable([]string{"ID", "Name", "Contract", "Client", "Start", "End", "Location", "Attendees", "Support"}, rows)
}

func (a *App) printEvent(e *models.Event) {
	a.renderFields([]field{
		{"ID", idText(e.ID)},
		{"Name", e.Name},
		{"Contract", e.ContractID},
		{"Client", idText(e.ClientID)},
		{"Start", date(e.StartDate)},
		{"End", date(e.EndDate)},
		{"Location", e.Location},
		{"Attendees", strconv.Itoa(e.Attendees)},
		{"Support contact", contact(e.SupportContactID)},
		{"Notes", e.Notes},
	})
}
