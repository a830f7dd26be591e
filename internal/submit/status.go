package submit

import "transcreva/internal/domain"

// statusLabels is the total mapping from submission status to the text shown
// on the submit control. User-facing text is Brazilian Portuguese.
var statusLabels = map[domain.Status]string{
	domain.StatusWaiting:    "Carregar vídeo",
	domain.StatusConverting: "Convertendo...",
	domain.StatusUploading:  "Carregando...",
	domain.StatusGenerating: "Transcrevendo...",
	domain.StatusSuccess:    "Sucesso!",
}

// Label returns the control text for a status. Every status has a defined
// rendering; unknown values fall back to the waiting call to action.
func Label(status domain.Status) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return statusLabels[domain.StatusWaiting]
}

// CanSubmit reports whether the submit control is enabled for a status.
// Everything except waiting keeps the form disabled.
func CanSubmit(status domain.Status) bool {
	return status == domain.StatusWaiting
}
