package profile

// Profile stores intake answers keyed by the canonical intake questions.
// Keys stay free-form so older profiles keep loading after question tweaks.
type Profile map[string]string

// Questions lists the canonical intake prompts in the order they are asked.
func Questions() []string {
	return []string{
		"Name?",
		"Age?",
		"Skin type (e.g., oily, dry, combination)",
		"Skin concerns (e.g., acne, sensitivity)",
		"Current Skincare routine",
		"Budget preference",
	}
}

// Clone returns a shallow copy so callers can mutate without aliasing.
func (p Profile) Clone() Profile {
	if p == nil {
		return nil
	}
	out := make(Profile, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
