package host

// Host is a property owner account. Authentication happens at the gateway;
// the backend only resolves the X-User-Id header to one of these.
type Host struct {
	Id          int
	Uid         string
	DisplayName string
	Email       string
	Phone       string
}
