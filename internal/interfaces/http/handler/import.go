package handler

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/mahallubank/backend/internal/application/importer"
)

// maxImportSize caps an uploaded CSV at 10 MiB
const maxImportSize = 10 << 20

// ImportHandler handles the bulk CSV import endpoints. Uploads are
// accepted either as a multipart "file" field or as a raw text/csv body.
type ImportHandler struct {
	BaseHandler
	members      *importer.MemberImportService
	transactions *importer.TransactionImportService
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(members *importer.MemberImportService, transactions *importer.TransactionImportService) *ImportHandler {
	return &ImportHandler{members: members, transactions: transactions}
}

// ImportMembers handles POST /import/members. The overwrite query flag
// commits rows whose account numbers already exist; without it, such
// rows put the import into analysis mode and the duplicates come back
// for confirmation.
func (h *ImportHandler) ImportMembers(c *gin.Context) {
	csvData, err := h.readCSV(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	overwrite := c.Query("overwrite") == "true"

	result, err := h.members.ImportMembers(c.Request.Context(), csvData, overwrite)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ImportTransactions handles POST /import/transactions. The overwrite
// query flag commits rows whose transactionIds already exist; without
// it, such rows put the import into analysis mode and the duplicate
// count comes back for confirmation.
func (h *ImportHandler) ImportTransactions(c *gin.Context) {
	csvData, err := h.readCSV(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	overwrite := c.Query("overwrite") == "true"

	result, err := h.transactions.ImportTransactions(c.Request.Context(), csvData, overwrite)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

func (h *ImportHandler) readCSV(c *gin.Context) (string, error) {
	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			return "", err
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, maxImportSize))
		return string(data), err
	}

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportSize))
	return string(data), err
}
