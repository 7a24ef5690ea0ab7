package types

// ProfileInfo contains user profile metadata (kind 0)
type ProfileInfo struct {
	Name        string `json:"name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Picture     string `json:"picture,omitempty"`
	Nip05       string `json:"nip05,omitempty"`
	About       string `json:"about,omitempty"`
	Website     string `json:"website,omitempty"`
}

// BestName returns the most presentable name for a profile:
// display_name, then name, then empty.
func (p *ProfileInfo) BestName() string {
	if p == nil {
		return ""
	}
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Name
}
