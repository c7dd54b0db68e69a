package access

import (
	"fmt"
	"sync"

	"github.com/rpggio/taskdesk/internal/domain/user"
)

// State is where the gate is in resolving the session.
type State int

const (
	// Unresolved means session restore has not finished.
	Unresolved State = iota
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Outcome is the gate's answer for one view or action.
type Outcome int

const (
	// Loading: render a neutral loading state and issue no requests.
	Loading Outcome = iota
	// RedirectLogin: no session; send the user to sign in.
	RedirectLogin
	// Deny: signed in, but the role cannot reach this. Show Placeholder.
	Deny
	// Allow: go ahead.
	Allow
)

func (o Outcome) String() string {
	switch o {
	case Loading:
		return "loading"
	case RedirectLogin:
		return "redirect-login"
	case Deny:
		return "deny"
	case Allow:
		return "allow"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Decision is an Outcome with the text to show for it.
type Decision struct {
	Outcome     Outcome
	Placeholder string
}

// Allowed reports whether the decision lets the caller proceed.
func (d Decision) Allowed() bool {
	return d.Outcome == Allow
}

// Gate decides which views and actions the current session can reach.
type Gate struct {
	table Table

	mu    sync.RWMutex
	state State
	role  user.Role
}

// NewGate creates an Unresolved gate backed by table.
func NewGate(table Table) *Gate {
	if table == nil {
		table = DefaultTable
	}
	return &Gate{table: table}
}

// Table returns the capability table the gate consults.
func (g *Gate) Table() Table {
	return g.table
}

// Resolve leaves Unresolved: Authenticated with role when signedIn, otherwise
// Unauthenticated.
func (g *Gate) Resolve(role user.Role, signedIn bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if signedIn {
		g.state = Authenticated
		g.role = role
		return
	}
	g.state = Unauthenticated
	g.role = ""
}

// Reset returns to Unresolved ahead of another restore.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = Unresolved
	g.role = ""
}

// State returns the current state and, when Authenticated, the role.
func (g *Gate) State() (State, user.Role) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state, g.role
}

// CheckView decides whether view may be opened.
func (g *Gate) CheckView(view View) Decision {
	return g.check(func(role user.Role) bool { return g.table.CanView(role, view) }, view)
}

// CheckAction decides whether action may be performed in view.
func (g *Gate) CheckAction(view View, action Action) Decision {
	return g.check(func(role user.Role) bool { return g.table.CanAct(role, view, action) }, view)
}

func (g *Gate) check(allowed func(user.Role) bool, view View) Decision {
	state, role := g.State()
	switch state {
	case Unresolved:
		return Decision{Outcome: Loading, Placeholder: "Loading..."}
	case Unauthenticated:
		return Decision{Outcome: RedirectLogin, Placeholder: "Please sign in to continue."}
	}
	if !allowed(role) {
		return Decision{Outcome: Deny, Placeholder: Placeholder(view)}
	}
	return Decision{Outcome: Allow}
}
