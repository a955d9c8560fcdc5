package misc

import (
	"fmt"
	"net/http"

	"github.com/2beens/ironlog/pkg"
)

type Handler struct {
	versionInfo string
}

func NewHandler(versionInfo string) *Handler {
	return &Handler{
		versionInfo: versionInfo,
	}
}

func (handler *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	pkg.WriteJSONResponseOK(w, `{"message":"I'm OK, thanks"}`)
}

func (handler *Handler) HandleVersion(w http.ResponseWriter, r *http.Request) {
	pkg.WriteJSONResponseOK(w, fmt.Sprintf(`{"version":"%s"}`, handler.versionInfo))
}
