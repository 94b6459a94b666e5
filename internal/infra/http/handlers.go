package http

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/n-arms/md-pgp-server/internal/domain"
)

// Registration messages carry one public key; anything near this size is not
// a key.
const maxRegistrationBytes = 1 << 20

// identityHeader carries the caller's identity, established by an upstream
// authentication layer. This service trusts it for authorization only; trust
// in the binding between caller and identity is the upstream's problem.
const identityHeader = "X-Identity"

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type documentResponse struct {
	DocID     string    `json:"doc_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type createDocumentRequest struct {
	Name string `json:"name"`
}

type shareDocumentRequest struct {
	Grantee string `json:"grantee"`
}

func (s *Server) handleRegister(c *gin.Context) {
	if !s.enforceRateLimit(c, "accounts:register") {
		return
	}
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRegistrationBytes))
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "UNREADABLE_BODY", "could not read request body")
		return
	}
	identity, err := s.registerUC.Execute(c.Request.Context(), raw)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"identity": identity.String()})
}

func (s *Server) handleCreateDocument(c *gin.Context) {
	caller, ok := s.authenticate(c, "documents:create")
	if !ok {
		return
	}
	var req createDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	if req.Name == "" {
		writeErrorCode(c, http.StatusBadRequest, "MISSING_NAME", "document name is required")
		return
	}
	doc, err := s.createUC.Execute(c.Request.Context(), caller, req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, documentResponse{
		DocID:     doc.ID,
		Name:      doc.Name,
		CreatedAt: doc.CreatedAt,
	})
}

func (s *Server) handleShareDocument(c *gin.Context) {
	caller, ok := s.authenticate(c, "documents:share")
	if !ok {
		return
	}
	var req shareDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	grantee, err := domain.ParseIdentity(req.Grantee)
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_IDENTITY", "grantee is not a valid identity")
		return
	}
	if err := s.shareUC.Execute(c.Request.Context(), c.Param("doc_id"), caller, grantee); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleListDocuments(c *gin.Context) {
	caller, ok := s.authenticate(c, "documents:list")
	if !ok {
		return
	}
	docs, err := s.listUC.Owned(c.Request.Context(), caller)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildDocumentList(docs))
}

func (s *Server) handleListSharedDocuments(c *gin.Context) {
	caller, ok := s.authenticate(c, "documents:list-shared")
	if !ok {
		return
	}
	docs, err := s.listUC.SharedWith(c.Request.Context(), caller)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildDocumentList(docs))
}

// authenticate resolves the caller identity header and applies the route's
// rate limit. It writes the response itself when the request cannot proceed.
func (s *Server) authenticate(c *gin.Context, routeID string) (domain.Identity, bool) {
	if !s.enforceRateLimit(c, routeID) {
		return "", false
	}
	raw := c.GetHeader(identityHeader)
	if raw == "" {
		writeErrorCode(c, http.StatusUnauthorized, "UNAUTHENTICATED", "missing "+identityHeader+" header")
		return "", false
	}
	identity, err := domain.ParseIdentity(raw)
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_IDENTITY", "caller identity is not canonical")
		return "", false
	}
	return identity, true
}

func buildDocumentList(docs []domain.DocumentSummary) []documentResponse {
	out := make([]documentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, documentResponse{
			DocID:     doc.ID,
			Name:      doc.Name,
			CreatedAt: doc.CreatedAt,
		})
	}
	return out
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrMalformedMessage):
		writeErrorCode(c, http.StatusBadRequest, "MALFORMED_MESSAGE", err.Error())
	case errors.Is(err, domain.ErrUnsignedMessage):
		writeErrorCode(c, http.StatusBadRequest, "UNSIGNED_MESSAGE", err.Error())
	case errors.Is(err, domain.ErrAmbiguousIssuer):
		writeErrorCode(c, http.StatusBadRequest, "AMBIGUOUS_ISSUER", err.Error())
	case errors.Is(err, domain.ErrKeyParse):
		writeErrorCode(c, http.StatusBadRequest, "KEY_PARSE_ERROR", err.Error())
	case errors.Is(err, domain.ErrIssuerKeyMismatch):
		writeErrorCode(c, http.StatusBadRequest, "ISSUER_KEY_MISMATCH", err.Error())
	case errors.Is(err, domain.ErrSignatureInvalid):
		writeErrorCode(c, http.StatusBadRequest, "SIGNATURE_INVALID", err.Error())
	case errors.Is(err, domain.ErrDuplicateIdentity):
		writeErrorCode(c, http.StatusConflict, "DUPLICATE_IDENTITY", err.Error())
	case errors.Is(err, domain.ErrUnknownDocument):
		writeErrorCode(c, http.StatusNotFound, "UNKNOWN_DOCUMENT", err.Error())
	case errors.Is(err, domain.ErrNotOwner):
		writeErrorCode(c, http.StatusForbidden, "NOT_OWNER", err.Error())
	case errors.Is(err, domain.ErrUnknownGrantee):
		writeErrorCode(c, http.StatusBadRequest, "UNKNOWN_GRANTEE", err.Error())
	case errors.Is(err, domain.ErrStorageUnavailable):
		// Storage failures stay opaque; details go nowhere near the wire.
		writeErrorCode(c, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "storage unavailable")
	default:
		writeErrorCode(c, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

func writeErrorCode(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorResponse{Code: code, Message: message})
}
