package handlers

import (
	"context"
	"net/http"
	"strings"

	"progression-service/internal/apperr"
	"progression-service/internal/cache"
	"progression-service/internal/certificate"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	certificatesIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "progression_certificates_issued_total",
			Help: "Total number of certificates issued",
		},
	)

	certificateVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "progression_certificate_verifications_total",
			Help: "Total number of certificate verification lookups",
		},
		[]string{"result"}, // result: valid/invalid/cached
	)
)

type CertificateHandler struct {
	Gate  *certificate.Gate
	Cache *cache.VerifyCache
}

func NewCertificateHandler(gate *certificate.Gate, verifyCache *cache.VerifyCache) *CertificateHandler {
	return &CertificateHandler{Gate: gate, Cache: verifyCache}
}

func (h *CertificateHandler) IssueCertificate(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")

	cert, created, err := h.Gate.Issue(context.Background(), userID)
	if err != nil {
		c.JSON(apperr.Status(err), gin.H{"error": err.Error()})
		return
	}

	// Idempotent re-returns of an existing certificate are not issuances.
	if created {
		certificatesIssued.Inc()
	}
	c.JSON(http.StatusOK, cert)
}

func (h *CertificateHandler) GetCertificate(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")

	cert, err := h.Gate.Get(context.Background(), userID)
	if err != nil {
		c.JSON(apperr.Status(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cert)
}

// VerifyCertificate is public and unauthenticated. Codes are
// case-insensitive on input; unknown codes return valid=false with no
// detail about why.
func (h *CertificateHandler) VerifyCertificate(c *gin.Context) {
	code := strings.ToUpper(strings.TrimSpace(c.Param("code")))
	ctx := context.Background()

	if v, ok := h.Cache.Get(ctx, code); ok {
		certificateVerifications.WithLabelValues("cached").Inc()
		c.JSON(http.StatusOK, v)
		return
	}

	v, err := h.Gate.Verify(ctx, code)
	if err != nil {
		c.JSON(apperr.Status(err), gin.H{"error": err.Error()})
		return
	}

	if v.Valid {
		certificateVerifications.WithLabelValues("valid").Inc()
		h.Cache.Set(ctx, code, v)
	} else {
		certificateVerifications.WithLabelValues("invalid").Inc()
	}
	c.JSON(http.StatusOK, v)
}
