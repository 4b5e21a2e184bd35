package model

// FileDescriptor is one media file matched to a vendor code during
// enumeration. Descriptors are created by the enumerators, owned by the
// pipeline for the duration of a run, and discarded afterwards.
type FileDescriptor struct {
	Name        string `json:"name"`
	TreePath    string `json:"tree_path"`
	StagingPath string `json:"staging_path,omitempty"`
	VendorCode  string `json:"vendor_code"`
	PhotoNumber uint   `json:"photo_number"`
}

// MediaBatch is the ordered set of resolved URLs submitted together for one
// product. URL order determines the photo ordering on the product card.
type MediaBatch struct {
	ProductID int64    `json:"nmId"`
	URLs      []string `json:"data"`
}

// FilterByCode returns the descriptors matched to code, preserving
// enumeration order.
func FilterByCode(files []FileDescriptor, code string) []FileDescriptor {
	out := make([]FileDescriptor, 0, len(files))
	for _, f := range files {
		if f.VendorCode == code {
			out = append(out, f)
		}
	}
	return out
}
