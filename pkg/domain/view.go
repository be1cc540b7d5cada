package domain

// PageView is what the presentation layer needs to render the current page.
type PageView struct {
	Page Page `json:"page"`

	// Blocks holds only the visible blocks, in declared order.
	Blocks []Block `json:"blocks"`

	// Answers prefills previously entered values for the visible input blocks.
	Answers map[string]any `json:"answers,omitempty"`

	Position  int  `json:"position"` // 1-based index of the page in the definition
	Total     int  `json:"total"`
	CanGoBack bool `json:"can_go_back"`
}

// InputBlocks returns the visible blocks that collect answers.
func (v *PageView) InputBlocks() []Block {
	var inputs []Block
	for _, b := range v.Blocks {
		if b.Type.IsInput() {
			inputs = append(inputs, b)
		}
	}
	return inputs
}
