package bill

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Server", func() {
	var (
		db          *mockDB
		storage     *mockStorage
		service     *Service
		auth        BasicAuth
		ghttpServer *ghttp.Server
	)

	setupServer := func() {
		server := NewServerWithRouter(service, auth, chi.NewRouter(), slog.Default())
		ghttpServer = ghttp.NewServer()
		for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions} {
			ghttpServer.RouteToHandler(method, regexp.MustCompile(`^/`), server.ServeHTTP)
		}
	}

	do := func(method, path string, body io.Reader, contentType string) *http.Response {
		req, err := http.NewRequest(method, ghttpServer.URL()+path, body)
		Expect(err).NotTo(HaveOccurred())
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		if auth.enabled() {
			req.SetBasicAuth(auth.Username, auth.Password)
		}
		resp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	upload := func(filename, contentType, email string) *http.Response {
		var body bytes.Buffer
		writer := multipart.NewWriter(&body)
		if filename != "" {
			header := make(textproto.MIMEHeader)
			header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
			if contentType != "" {
				header.Set("Content-Type", contentType)
			}
			part, err := writer.CreatePart(header)
			Expect(err).NotTo(HaveOccurred())
			_, err = part.Write([]byte("image data"))
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(writer.WriteField("email", email)).To(Succeed())
		Expect(writer.Close()).To(Succeed())
		return do(http.MethodPost, "/api/bills", &body, writer.FormDataContentType())
	}

	errorBody := func(resp *http.Response) string {
		var payload map[string]string
		Expect(json.NewDecoder(resp.Body).Decode(&payload)).To(Succeed())
		return payload["error"]
	}

	BeforeEach(func() {
		db = newMockDB()
		storage = newMockStorage()
		service = NewServiceWithDeps(db, nil, storage, "https://localhost:3456", &mockIDGenerator{ids: []string{"1234"}}, &mockTimeSource{})
		auth = BasicAuth{}
	})

	JustBeforeEach(func() {
		setupServer()
	})

	AfterEach(func() {
		ghttpServer.Close()
	})

	Describe("GET /health", func() {
		It("should answer ok", func() {
			resp := do(http.MethodGet, "/health", nil, "")
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			body, _ := io.ReadAll(resp.Body)
			Expect(string(body)).To(Equal("ok"))
		})
	})

	Describe("GET /api/bills", func() {
		When("there are no bills", func() {
			It("should return an empty array", func() {
				resp := do(http.MethodGet, "/api/bills", nil, "")
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				body, _ := io.ReadAll(resp.Body)
				Expect(strings.TrimSpace(string(body))).To(Equal("[]"))
			})
		})

		When("bills exist", func() {
			BeforeEach(func() {
				db.records["a"] = &Record{Bill: Bill{ID: "a", Name: "encore", VAT: NewNumber(80)}}
				db.records["d"] = &Record{Bill: Bill{ID: "d"}, Draft: true}
			})

			It("should return the finalized bills", func() {
				resp := do(http.MethodGet, "/api/bills", nil, "")
				defer resp.Body.Close()

				var bills []Bill
				Expect(json.NewDecoder(resp.Body).Decode(&bills)).To(Succeed())
				Expect(bills).To(HaveLen(1))
				Expect(bills[0].Name).To(Equal("encore"))
				Expect(bills[0].VAT).To(Equal(NewNumber(80)))
			})

			It("should allow cross-origin requests", func() {
				resp := do(http.MethodGet, "/api/bills", nil, "")
				defer resp.Body.Close()
				Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal("*"))
			})
		})

		When("listing fails", func() {
			BeforeEach(func() {
				db.listErr = io.ErrUnexpectedEOF
			})

			It("should hide the cause behind a 500", func() {
				resp := do(http.MethodGet, "/api/bills", nil, "")
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
				Expect(errorBody(resp)).To(Equal("Internal server error"))
			})
		})
	})

	Describe("POST /api/bills", func() {
		It("should create a bill from a picture", func() {
			resp := upload("test.jpg", "image/jpg", "a@a")
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			var result CreateResult
			Expect(json.NewDecoder(resp.Body).Decode(&result)).To(Succeed())
			Expect(result.Key).To(Equal("1234"))
			Expect(result.FileURL).To(Equal("https://localhost:3456/files/1234"))
			Expect(db.records["1234"].Email).To(Equal("a@a"))
		})

		It("should guess the type from the file name when none is sent", func() {
			resp := upload("test.png", "application/octet-stream", "a@a")
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			Expect(db.records["1234"].ContentType).To(Equal("image/png"))
		})

		It("should reject other formats", func() {
			resp := upload("facture.pdf", "application/pdf", "a@a")
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(errorBody(resp)).To(Equal(InvalidFormatMessage))
			Expect(db.records).To(BeEmpty())
		})

		It("should require a file", func() {
			resp := upload("", "", "a@a")
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(errorBody(resp)).To(ContainSubstring("No file was selected"))
		})

		It("should reject a body that is not multipart", func() {
			resp := do(http.MethodPost, "/api/bills", strings.NewReader("{}"), "application/json")
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(errorBody(resp)).To(Equal("Error parsing form"))
		})
	})

	Describe("PUT /api/bills/{id}", func() {
		BeforeEach(func() {
			db.records["1234"] = &Record{
				Bill:        Bill{ID: "1234", Email: "a@a", FileURL: "https://localhost:3456/files/1234", FileName: "test.jpg"},
				Draft:       true,
				StoredName:  "1234_test.jpg",
				ContentType: "image/jpeg",
			}
		})

		It("should finalize the bill", func() {
			resp := do(http.MethodPut, "/api/bills/1234", strings.NewReader(`{"name":"encore","amount":400,"vat":"","pct":20}`), "application/json")
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var updated Bill
			Expect(json.NewDecoder(resp.Body).Decode(&updated)).To(Succeed())
			Expect(updated.ID).To(Equal("1234"))
			Expect(updated.Name).To(Equal("encore"))
			Expect(updated.FileName).To(Equal("test.jpg"))
			Expect(updated.Status).To(Equal(StatusPending))
			Expect(db.records["1234"].Draft).To(BeFalse())
		})

		It("should return 404 for an unknown bill", func() {
			resp := do(http.MethodPut, "/api/bills/missing", strings.NewReader(`{"name":"encore"}`), "application/json")
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("should return 400 for a malformed body", func() {
			resp := do(http.MethodPut, "/api/bills/1234", strings.NewReader(`{"name":`), "application/json")
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(errorBody(resp)).To(Equal("Invalid request body"))
		})
	})

	Describe("GET /api/bills/{id}", func() {
		It("should return 404 for an unknown bill", func() {
			resp := do(http.MethodGet, "/api/bills/missing", nil, "")
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			Expect(errorBody(resp)).To(ContainSubstring("bill not found"))
		})
	})

	Describe("DELETE /api/bills/{id}", func() {
		BeforeEach(func() {
			db.records["1234"] = &Record{Bill: Bill{ID: "1234"}, StoredName: "1234_test.jpg"}
			storage.files["1234_test.jpg"] = []byte("image data")
		})

		It("should remove the bill and its receipt", func() {
			resp := do(http.MethodDelete, "/api/bills/1234", nil, "")
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(db.records).To(BeEmpty())
			Expect(storage.files).To(BeEmpty())
		})
	})

	Describe("GET /files/{id}", func() {
		BeforeEach(func() {
			db.records["1234"] = &Record{Bill: Bill{ID: "1234"}, StoredName: "1234_test.png", ContentType: "image/png"}
			storage.files["1234_test.png"] = []byte("png data")
		})

		It("should stream the receipt with its content type", func() {
			resp := do(http.MethodGet, "/files/1234", nil, "")
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("image/png"))
			body, _ := io.ReadAll(resp.Body)
			Expect(body).To(Equal([]byte("png data")))
		})
	})

	Describe("basic auth", func() {
		BeforeEach(func() {
			auth = BasicAuth{Username: "employee", Password: "secret"}
		})

		It("should accept valid credentials", func() {
			resp := do(http.MethodGet, "/api/bills", nil, "")
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})

		It("should reject missing credentials", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/bills")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			Expect(resp.Header.Get("WWW-Authenticate")).To(ContainSubstring("Basic"))
		})

		It("should leave the health check open", func() {
			resp, err := http.Get(ghttpServer.URL() + "/health")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})
	})

	Describe("CORS preflight", func() {
		BeforeEach(func() {
			auth = BasicAuth{Username: "employee", Password: "secret"}
		})

		It("should answer without authentication", func() {
			req, err := http.NewRequest(http.MethodOptions, ghttpServer.URL()+"/api/bills", nil)
			Expect(err).NotTo(HaveOccurred())
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
		})
	})
})
