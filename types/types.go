package types

// ImageInfo holds the metadata of one loaded input image
type ImageInfo struct {
	Index    int    `json:"index"`
	Path     string `json:"path"`
	Label    string `json:"label"`
	Format   string `json:"format"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Channels int    `json:"channels"`
}

// PairScore holds the similarity score of one unordered image pair, I < J
type PairScore struct {
	I    int
	J    int
	SSIM float64
}
