package domain

// CandidateItem is one proposed item from a generation run. The user reviews
// the batch and toggles IsEnabled before pushing to the PLM server.
type CandidateItem struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Desc      string `json:"desc"`
	IsEnabled bool   `json:"isEnabled"`
}

// ItemCreationResult reports the outcome for one attempted candidate item.
// Results are ordered 1:1 with the enabled candidates of the run.
type ItemCreationResult struct {
	ItemName string `json:"item_name"`
	Success  bool   `json:"success"`
}
