package ports

func (s LiveStatus) String() string {
	switch s {
	case LiveAvailable:
		return "Available"
	case LiveNotAvailable:
		return "Not Available"
	case LiveUnknownBarcode:
		return "Unknown Barcode"
	default:
		return ""
	}
}
