package actor

// Role identifies what an authenticated actor is allowed to do.
type Role string

const (
	RoleFarmer   Role = "farmer"
	RoleConsumer Role = "consumer"
	RoleAdmin    Role = "admin"
)

// Actor is the authenticated identity threaded into every core operation.
// Identity resolution itself (sessions, tokens) lives outside the core.
type Actor struct {
	ID   string
	Role Role
}

func (a Actor) IsAdmin() bool  { return a.Role == RoleAdmin }
func (a Actor) IsFarmer() bool { return a.Role == RoleFarmer }
