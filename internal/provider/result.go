package provider

// Result is the normalized outcome of an asynchronous vendor job. It is one
// of Generating, Completed or Errored.
type Result interface {
	VendorStatus() string
	isResult()
}

// Generating means the vendor is still working.
type Generating struct {
	Status string
}

// Completed carries the produced media. VideoURL is never empty.
type Completed struct {
	Status       string
	VideoURL     string
	ThumbnailURL string
	PreviewURL   string
	CaptionURL   string
	Duration     float64
}

// Errored is a logical failure reported by the vendor.
type Errored struct {
	Status  string
	Message string
}

func (r Generating) VendorStatus() string { return r.Status }
func (r Completed) VendorStatus() string  { return r.Status }
func (r Errored) VendorStatus() string    { return r.Status }

func (Generating) isResult() {}
func (Completed) isResult()  {}
func (Errored) isResult()    {}
