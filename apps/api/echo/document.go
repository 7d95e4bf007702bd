package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campusflow/core"
	"github.com/trezcool/campusflow/core/document"
	filesvc "github.com/trezcool/campusflow/services/files"
)

type documentApi struct {
	conf     *core.Config
	svc      *document.Service
	files    *filesvc.LocalStore
	validate *validator.Validate
}

func registerDocumentAPI(g *echo.Group, auth []echo.MiddlewareFunc, deps *Deps) {
	api := documentApi{
		conf:     deps.Conf,
		svc:      deps.DocumentSvc,
		files:    deps.Files,
		validate: deps.Validate,
	}

	dg := g.Group("/documents", auth...)
	dg.GET("", api.checklist)
	dg.POST("/upload", api.upload)
	dg.POST("/upload-file", api.uploadFile)
	dg.PUT("/:id/verify", api.verify, adminMiddleware())
}

func (api *documentApi) checklist(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	cl, err := api.svc.Checklist(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "getting documents checklist")
	}
	return ctx.JSON(http.StatusOK, cl)
}

func (api *documentApi) upload(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var data document.Upload
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to document.Upload")
	}
	if err = api.validate.Struct(data); err != nil {
		return err
	}

	doc, err := api.svc.Upload(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "uploading document")
	}
	return ctx.JSON(http.StatusOK, UploadResponse{Message: "Document uploaded successfully", DocumentID: doc.ID})
}

// uploadFile stores a multipart `file` and attaches it to the `document_type` document.
func (api *documentApi) uploadFile(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	data := document.Upload{Type: document.Type(ctx.FormValue("document_type"))}
	if err = data.Clean(); err != nil {
		return err
	}
	fh, err := ctx.FormFile("file")
	if err != nil {
		return errFileMissing
	}
	if _, err = document.CheckExtension(fh.Filename); err != nil {
		return err
	}
	if fh.Size > api.conf.MaxUploadSize {
		return core.NewError(core.ErrInvalidArgument, "file too large")
	}

	src, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer src.Close()

	stored, err := api.files.Save(usr.ID, string(data.Type), fh.Filename, src)
	if err != nil {
		return errors.Wrap(err, "storing uploaded file")
	}

	data.FileURL = stored.URL
	data.FileName = fh.Filename
	if _, err = api.svc.Upload(ctx.Request().Context(), usr.ID, data); err != nil {
		api.files.Remove(stored)
		return errors.Wrap(err, "uploading document")
	}
	return ctx.JSON(http.StatusOK, UploadResponse{Message: "File uploaded successfully", FileURL: stored.URL})
}

func (api *documentApi) verify(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	if _, err = api.svc.Verify(ctx.Request().Context(), ctx.Param("id"), usr); err != nil {
		return errors.Wrap(err, "verifying document")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Document verified successfully"})
}

type UploadResponse struct {
	Message    string `json:"message"`
	DocumentID string `json:"document_id,omitempty"`
	FileURL    string `json:"file_url,omitempty"`
}
