package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/fan-verifier/internal/observability"
	"github.com/jonathan/fan-verifier/internal/ocr"
	"github.com/jonathan/fan-verifier/internal/types"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Match an identity document against a fan's name",
	Long:  "Extracts the text of an identity document (JPEG, PNG or PDF) with OCR and checks whether it names the fan.",
	RunE:  runDocument,
}

var (
	documentFile        string
	documentName        string
	documentContentType string
)

func init() {
	documentCmd.Flags().StringVarP(&documentFile, "file", "f", "", "Path to the identity document (required)")
	documentCmd.Flags().StringVarP(&documentName, "name", "n", "", "Fan's full name (required)")
	documentCmd.Flags().StringVar(&documentContentType, "content-type", "",
		fmt.Sprintf("Declared content type (%s); detected from the file when omitted", ocr.SupportedContentTypeList()))

	if err := documentCmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Sprintf("failed to mark file flag as required: %v", err))
	}
	if err := documentCmd.MarkFlagRequired("name"); err != nil {
		panic(fmt.Sprintf("failed to mark name flag as required: %v", err))
	}

	rootCmd.AddCommand(documentCmd)
}

func runDocument(cmd *cobra.Command, _ []string) error {
	data, err := os.ReadFile(documentFile)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	contentType := types.ContentType(strings.TrimSpace(documentContentType))
	if contentType == "" {
		contentType = detectContentType(documentFile, data)
	}

	svc, err := service()
	if err != nil {
		return err
	}

	verdict, err := svc.VerifyDocument(cmd.Context(), types.DocumentRequest{
		Data:          data,
		ContentType:   contentType,
		CandidateName: documentName,
		Filename:      filepath.Base(documentFile),
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), verdict)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintIdentityVerdict(documentName, verdict)
	return nil
}

// detectContentType trusts a known extension, then falls back to sniffing.
func detectContentType(path string, data []byte) types.ContentType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return types.ContentTypeJPEG
	case ".png":
		return types.ContentTypePNG
	case ".pdf":
		return types.ContentTypePDF
	}
	sniffed, _, _ := strings.Cut(http.DetectContentType(data), ";")
	return types.ContentType(sniffed)
}
