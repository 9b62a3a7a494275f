package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/naveenspark/payline/internal/guard"
	"github.com/naveenspark/payline/internal/i18n"
	"github.com/naveenspark/payline/pkg/domain"
)

type view int

const (
	viewLogin view = iota
	viewDashboard
	viewNotifications
	viewNetwork
	viewLoads
	viewProfile
)

// Feature flags checked by the guard.
const (
	FeatureNotifications   = "notifications"
	FeatureNetwork         = "network"
	FeatureCommissionLoads = "commission_loads"
)

// flashDuration is how long a status line stays visible.
const flashDuration = 4 * time.Second

// routes maps every view to the requirements the guard enforces.
var routes = map[view]guard.Route{
	viewLogin:         {Name: guard.RouteLogin, Public: true},
	viewDashboard:     {Name: guard.RouteDashboard},
	viewNotifications: {Name: guard.RouteNotifications, Feature: FeatureNotifications},
	viewNetwork: {
		Name:          guard.RouteNetwork,
		Feature:       FeatureNetwork,
		Allow:         func(u *domain.User) bool { return u != nil && u.ReferralCode != "" },
		DeniedMessage: "a referral code is required",
	},
	viewLoads: {
		Name:          guard.RouteLoads,
		Feature:       FeatureCommissionLoads,
		Allow:         (*domain.User).IsAdmin,
		DeniedMessage: "admins only",
	},
	viewProfile: {Name: guard.RouteProfile},
}

func viewFor(route string) view {
	for v, r := range routes {
		if r.Name == route {
			return v
		}
	}
	return viewDashboard
}

// flashMsg asks the root model to show a status line.
type flashMsg struct {
	text  string
	isErr bool
}

type flashClearMsg struct {
	seq int
}

func flash(text string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return flashMsg{text: text, isErr: isErr}
	}
}

// App is the root Bubbletea model.
type App struct {
	sess    Session
	backend Backend
	notes   Notifications
	guard   *guard.Guard
	loc     *i18n.Locale
	log     zerolog.Logger
	version string

	view          view
	login         loginModel
	dashboard     dashboardModel
	notifications notificationsModel
	network       networkModel
	loads         loadsModel
	profile       profileModel

	flash    string
	flashErr bool
	flashSeq int
	width    int
	height   int
	frame    int // logo shimmer animation frame
}

// NewApp creates a new TUI application. It opens on the dashboard when a
// session is already stored, otherwise on the login form.
func NewApp(d Deps) App {
	a := App{
		sess:          d.Session,
		backend:       d.Backend,
		notes:         d.Notes,
		guard:         d.Guard,
		loc:           d.Locale,
		log:           d.Log,
		version:       d.Version,
		login:         newLoginModel(d.Session, d.Locale),
		dashboard:     newDashboardModel(d.Session, d.Backend, d.Notes, d.Locale),
		notifications: newNotificationsModel(d.Session, d.Backend, d.Notes, d.Locale),
		network:       newNetworkModel(d.Session, d.Backend, d.Locale),
		loads:         newLoadsModel(d.Session, d.Backend, d.Locale),
		profile:       newProfileModel(d.Session, d.Locale),
	}
	if d.Session.IsAuthenticated() {
		a.view = viewDashboard
	}
	return a
}

func (a App) Init() tea.Cmd {
	return tea.Batch(shimmerTickCmd(), a.initView(a.view))
}

func (a App) initView(v view) tea.Cmd {
	switch v {
	case viewDashboard:
		return a.dashboard.Init()
	case viewNotifications:
		return a.notifications.Init()
	case viewProfile:
		return a.profile.Init()
	}
	return nil
}

func (a *App) setFlash(text string, isErr bool) tea.Cmd {
	a.flash = text
	a.flashErr = isErr
	a.flashSeq++
	seq := a.flashSeq
	return tea.Tick(flashDuration, func(time.Time) tea.Msg {
		return flashClearMsg{seq: seq}
	})
}

// navigate switches to v if the guard allows it, following its redirect
// otherwise.
func (a App) navigate(v view) (App, tea.Cmd) {
	d := a.guard.Check(routes[v])
	if d.Allowed {
		a.view = v
		if v == viewLoads {
			a.loads = newLoadsModel(a.sess, a.backend, a.loc)
		}
		return a, a.initView(v)
	}

	a.log.Debug().Str("route", routes[v].Name).Str("redirect", d.Redirect).Str("reason", d.Message).Msg("navigation denied")
	var cmds []tea.Cmd
	if d.Message != "" {
		cmds = append(cmds, a.setFlash(a.loc.T(d.Message), true))
	}
	target := viewFor(d.Redirect)
	if target == viewLogin {
		a.view = viewLogin
		a.login = newLoginModel(a.sess, a.loc)
		return a, tea.Batch(cmds...)
	}
	if target != v && target != a.view {
		var cmd tea.Cmd
		a, cmd = a.navigate(target)
		cmds = append(cmds, cmd)
	}
	return a, tea.Batch(cmds...)
}

func (a App) signOut(message string) (App, tea.Cmd) {
	stop := a.notifications.stopPoll()
	a.sess.Logout(context.Background())
	a.view = viewLogin
	a.login = newLoginModel(a.sess, a.loc)
	a.profile = newProfileModel(a.sess, a.loc)
	a.dashboard = newDashboardModel(a.sess, a.backend, a.notes, a.loc)
	a.notifications = newNotificationsModel(a.sess, a.backend, a.notes, a.loc)
	a.network = newNetworkModel(a.sess, a.backend, a.loc)
	cmd := a.setFlash(a.loc.T(message), false)
	return a, tea.Batch(stop, cmd)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if r, ok := msg.(resultMsg); ok && sessionExpired(r.result()) {
		a.log.Info().Err(r.result()).Msg("session expired")
		stop := a.notifications.stopPoll()
		a.notifications = newNotificationsModel(a.sess, a.backend, a.notes, a.loc)
		a.view = viewLogin
		a.login = newLoginModel(a.sess, a.loc)
		cmd := a.setFlash(a.loc.T("session expired, sign in again"), true)
		return a, tea.Batch(stop, cmd)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Chrome: header(2) + tabs(1) + flash(1) + help(1) = 5 lines
		bodyMsg := tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 5}
		a.dashboard, _ = a.dashboard.Update(bodyMsg)
		a.notifications, _ = a.notifications.Update(bodyMsg)
		a.network, _ = a.network.Update(bodyMsg)
		return a, nil

	case shimmerTickMsg:
		a.frame++
		a.login.frame = a.frame
		a.network.frame = a.frame
		a.loads.frame = a.frame
		return a, shimmerTickCmd()

	case flashMsg:
		cmd := a.setFlash(msg.text, msg.isErr)
		return a, cmd

	case flashClearMsg:
		if msg.seq == a.flashSeq {
			a.flash = ""
		}
		return a, nil

	case badgeLoadedMsg:
		// The badge reads the shared cache on render.
		return a, nil

	case loginResultMsg:
		var cmd tea.Cmd
		a.login, cmd = a.login.Update(msg)
		if msg.err != nil {
			return a, cmd
		}
		return a.navigate(viewDashboard)

	case claimPollDoneMsg:
		// Delivered wherever the user is; the poll belongs to the notifications view.
		var cmd tea.Cmd
		a.notifications, cmd = a.notifications.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if !a.isEditing() {
			switch msg.String() {
			case "q":
				return a, tea.Quit
			case "1":
				return a.navigate(viewDashboard)
			case "2":
				return a.navigate(viewNotifications)
			case "3":
				return a.navigate(viewNetwork)
			case "4":
				return a.navigate(viewLoads)
			case "5":
				return a.navigate(viewProfile)
			case "L":
				if a.view != viewLogin {
					return a.signOut("signed out")
				}
			}
		} else if msg.String() == "esc" && a.view == viewLoads {
			return a.navigate(viewDashboard)
		}
	}

	var cmd tea.Cmd
	switch a.view {
	case viewLogin:
		a.login, cmd = a.login.Update(msg)
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.Update(msg)
	case viewNotifications:
		a.notifications, cmd = a.notifications.Update(msg)
	case viewNetwork:
		a.network, cmd = a.network.Update(msg)
	case viewLoads:
		a.loads, cmd = a.loads.Update(msg)
	case viewProfile:
		a.profile, cmd = a.profile.Update(msg)
	}
	return a, cmd
}

func (a App) isEditing() bool {
	switch a.view {
	case viewLogin, viewLoads:
		return true
	case viewNetwork:
		return a.network.focused
	}
	return false
}

func (a App) unread() int {
	if a.notes == nil || !a.guard.FeatureEnabled(FeatureNotifications) {
		return 0
	}
	page, ok := a.notes.Cached(1, notificationsPageSize)
	if !ok {
		return 0
	}
	return page.UnreadCount
}

func center(s string, width int) string {
	pad := (width - lipgloss.Width(s)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + s
}

func (a App) View() string {
	header := center(renderShimmerLogo(a.frame), a.width)
	if u := a.sess.User(); u != nil && a.view != viewLogin {
		header += "\n" + center(metaStyle.Render(u.DisplayName()), a.width)
	} else {
		header += "\n"
	}

	type tabEntry struct {
		key  string
		name string
		v    view
	}
	tabs := []tabEntry{
		{"1", a.loc.T("Dashboard"), viewDashboard},
		{"2", a.loc.T("Notifications"), viewNotifications},
		{"3", a.loc.T("Network"), viewNetwork},
		{"4", a.loc.T("Loads"), viewLoads},
		{"5", a.loc.T("Profile"), viewProfile},
	}

	var tabBar string
	if a.view != viewLogin {
		colWidth := a.width / len(tabs)
		var sb strings.Builder
		for _, t := range tabs {
			var label string
			if t.v == a.view {
				label = accentStyle.Render(t.key) + " " + selectedStyle.Underline(true).Render(t.name)
			} else {
				label = metaStyle.Render(t.key) + " " + dimStyle.Render(t.name)
			}
			if t.v == viewNotifications {
				if n := a.unread(); n > 0 {
					label += " " + badgeStyle.Render(fmt.Sprintf("%d", n))
				}
			}
			labelWidth := lipgloss.Width(label)
			leftPad := max((colWidth-labelWidth)/2, 0)
			rightPad := max(colWidth-labelWidth-leftPad, 0)
			sb.WriteString(strings.Repeat(" ", leftPad) + label + strings.Repeat(" ", rightPad))
		}
		tabBar = sb.String()
	}

	var body, help string
	nav := helpEntry("1-5", "tabs")
	tail := helpEntry("L", "sign out") + "  " + helpEntry("q", "quit")
	switch a.view {
	case viewLogin:
		body = a.login.View()
		help = " " + helpEntry("tab", "next") + "  " + helpEntry("enter", "sign in") + "  " + helpEntry("ctrl+c", "quit")
	case viewDashboard:
		body = a.dashboard.View()
		help = " " + nav + "  " + helpEntry("r", "refresh") + "  " + tail
	case viewNotifications:
		body = a.notifications.View()
		help = " " + nav + "  " + a.notifications.helpKeys() + "  " + tail
	case viewNetwork:
		body = a.network.View()
		help = " " + nav + "  " + a.network.helpKeys() + "  " + tail
	case viewLoads:
		body = a.loads.View()
		help = " " + helpEntry("tab", "next") + "  " + helpEntry("ctrl+s", "submit") + "  " + helpEntry("esc", "back")
	case viewProfile:
		body = a.profile.View()
		help = " " + nav + "  " + helpEntry("l", "language") + "  " + tail
	}
	if a.version != "" {
		help += "  " + metaStyle.Render(a.version)
	}

	var flashLine string
	if a.flash != "" {
		if a.flashErr {
			flashLine = " " + errorStyle.Render(a.flash)
		} else {
			flashLine = " " + flashStyle.Render(a.flash)
		}
	}

	chrome := 5
	body = strings.TrimRight(truncateToHeight(body, a.height-chrome), "\n")

	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s", header, tabBar, body, flashLine, help)
}
