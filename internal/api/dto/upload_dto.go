package dto

// PresignUploadRequest 申请直传签名
type PresignUploadRequest struct {
	FileName    string `json:"file_name" binding:"required,max=255"`
	ContentType string `json:"content_type" binding:"required,max=100"`
	SizeBytes   int64  `json:"size_bytes" binding:"required,min=1"`
}

// PresignUploadResponse 直传签名结果
type PresignUploadResponse struct {
	UploadURL  string `json:"upload_url"`
	StorageKey string `json:"storage_key"`
	PublicURL  string `json:"public_url"`
	ExpiresIn  int64  `json:"expires_in"`
}

// AttachMediaRequest 直传完成后挂载到房源
type AttachMediaRequest struct {
	ListingID  int64  `json:"listing_id" binding:"required"`
	StorageKey string `json:"storage_key" binding:"required"`
	IsPrimary  bool   `json:"is_primary"`
}
