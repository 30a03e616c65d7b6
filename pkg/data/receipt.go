package data

import "time"

const ReceiptName = "INSTALL_RECEIPT.json"

// ReceiptPlatform records where a keg was built.
type ReceiptPlatform struct {
	OS        string `json:"os"`
	OSVersion string `json:"os_version"`
	Arch      string `json:"arch"`
}

type ReceiptDependency struct {
	Name  string `json:"name"`
	Phase string `json:"phase"`
	Path  string `json:"path,omitempty"`
}

// Receipt is written into every keg after a successful install.
type Receipt struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Repo    string `json:"repo"`

	SourceURL string `json:"source_url"`
	Checksum  string `json:"checksum,omitempty"`
	Head      bool   `json:"head,omitempty"`

	Binary string   `json:"binary"`
	Files  []string `json:"files"`

	Dependencies []*ReceiptDependency `json:"dependencies,omitempty"`

	BuiltOn     *ReceiptPlatform `json:"built_on,omitempty"`
	InstalledAt time.Time        `json:"installed_at"`
}
