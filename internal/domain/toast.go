package domain

// ToastVariant selects toast presentation severity.
type ToastVariant string

const (
	ToastVariantDefault     ToastVariant = "default"
	ToastVariantDestructive ToastVariant = "destructive"
)

// Toast is a short, dismissable user-facing notification.
type Toast struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Variant     ToastVariant `json:"variant"`
}

// ErrorToast builds the destructive-variant toast used for every failure path.
func ErrorToast(description string) Toast {
	return Toast{
		Title:       "Ops!",
		Description: description,
		Variant:     ToastVariantDestructive,
	}
}
