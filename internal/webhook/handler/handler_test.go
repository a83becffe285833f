package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/GuyfromMontana/MFC-single-agent/internal/caller/models"
	"github.com/GuyfromMontana/MFC-single-agent/internal/calls"
	"github.com/GuyfromMontana/MFC-single-agent/internal/leads"
	lmodels "github.com/GuyfromMontana/MFC-single-agent/internal/leads/models"
	"github.com/GuyfromMontana/MFC-single-agent/internal/persist"
	"github.com/GuyfromMontana/MFC-single-agent/internal/platform/middleware"
	"github.com/GuyfromMontana/MFC-single-agent/internal/territory"
	tmodels "github.com/GuyfromMontana/MFC-single-agent/internal/territory/models"
	"github.com/GuyfromMontana/MFC-single-agent/internal/webhook/handler/mocks"
	"github.com/GuyfromMontana/MFC-single-agent/pkg/domain"
	"github.com/GuyfromMontana/MFC-single-agent/pkg/requestcontext"
	"github.com/GuyfromMontana/MFC-single-agent/pkg/testutil"
)

const testSecret = "whsec_test"

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	calls   *mocks.MockCallService
	router  *mocks.MockRouter
	leads   *mocks.MockLeadCapturer
	dedupe  *mocks.MockDeduper
	handler *Handler
	mux     *chi.Mux
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.calls = mocks.NewMockCallService(s.ctrl)
	s.router = mocks.NewMockRouter(s.ctrl)
	s.leads = mocks.NewMockLeadCapturer(s.ctrl)
	s.dedupe = mocks.NewMockDeduper(s.ctrl)
	s.handler = New(s.calls, s.router, s.leads, testutil.DiscardLogger(), nil, WithDeduper(s.dedupe))
	s.mux = chi.NewRouter()
	s.handler.Register(s.mux)
}

func (s *HandlerSuite) post(path string, body any) *httptest.ResponseRecorder {
	return testutil.DoRequest(s.mux, testutil.NewJSONRequest(s.T(), http.MethodPost, path, body))
}

func result[T any](s *HandlerSuite, rr *httptest.ResponseRecorder) T {
	s.T().Helper()
	return testutil.DecodeFunctionResult[T](s.T(), rr)
}

func (s *HandlerSuite) TestHealth() {
	h := New(s.calls, s.router, s.leads, testutil.DiscardLogger(), nil,
		WithHealth(func(context.Context) map[string]any { return map[string]any{"memory_breaker": "closed"} }))
	mux := chi.NewRouter()
	h.Register(mux)

	rr := testutil.DoRequest(mux, testutil.NewRequest(s.T(), http.MethodGet, "/health"))
	testutil.AssertStatusOK(s.T(), rr)
	body := testutil.UnmarshalResponse[map[string]any](s.T(), rr)
	s.Equal("ok", (*body)["status"])
	s.Equal("closed", (*body)["memory_breaker"])
}

func (s *HandlerSuite) TestCallStarted() {
	profile := &models.CallerProfile{PhoneKey: "14065551234", CallerName: "Guy Hanson", IsReturningCaller: true}
	s.calls.EXPECT().Start(gomock.Any(), "+14065551234").
		Return(calls.StartResult{Profile: profile, Variables: profile.Variables()})

	rr := s.post("/retell/webhook", map[string]any{
		"event": "call_started",
		"call":  map[string]any{"call_id": "c1", "from_number": "+14065551234"},
	})

	testutil.AssertStatusOK(s.T(), rr)
	resp := testutil.UnmarshalResponse[CallStartedResponse](s.T(), rr)
	s.Equal(1, resp.ResponseID)
	s.Equal("Guy Hanson", resp.DynamicVariables[models.VarName])
	s.Equal("true", resp.DynamicVariables[models.VarIsReturning])
}

func (s *HandlerSuite) TestCallEnded() {
	s.dedupe.EXPECT().Claim(gomock.Any(), "call_ended:c1").Return(true, nil)
	s.calls.EXPECT().End(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req calls.EndRequest) calls.EndResult {
			s.Equal("c1", req.CallID)
			s.Equal("Dave", req.KnownName)
			s.Require().Len(req.Turns, 2)
			s.Equal(domain.RoleUser, req.Turns[1].Role)
			s.Equal(int64(1700000000000), req.StartedAt.UnixMilli())
			return calls.EndResult{
				Persist: persist.Result{Success: true, SavedCount: 2, ExtractedName: "Guy Hanson"},
				Routing: &territory.Resolution{Success: true, Territory: "Bitterroot"},
			}
		})

	rr := s.post("/retell/webhook", map[string]any{
		"event": "call_ended",
		"call": map[string]any{
			"call_id":                      "c1",
			"from_number":                  "+14065551234",
			"start_timestamp":              1700000000000,
			"retell_llm_dynamic_variables": map[string]any{"caller_name": "Dave"},
			"transcript_object": []map[string]string{
				{"role": "agent", "content": "Hi, who am I speaking with?"},
				{"role": "user", "content": "My name is Guy Hanson, I'm near Darby"},
			},
		},
	})

	testutil.AssertStatusOK(s.T(), rr)
	resp := testutil.UnmarshalResponse[CallEndedResponse](s.T(), rr)
	s.Equal(CallEndedResponse{Status: "received", MemorySaved: 2, ExtractedName: "Guy Hanson", Territory: "Bitterroot"}, *resp)
}

func (s *HandlerSuite) TestCallEndedDuplicateSkipsPipeline() {
	s.dedupe.EXPECT().Claim(gomock.Any(), "call_ended:c1").Return(false, nil)

	rr := s.post("/retell/webhook", map[string]any{"event": "call_ended", "call": map[string]any{"call_id": "c1"}})

	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "status", "duplicate")
}

func (s *HandlerSuite) TestCallEndedDedupeErrorFailsOpen() {
	s.dedupe.EXPECT().Claim(gomock.Any(), gomock.Any()).Return(false, errors.New("redis down"))
	s.calls.EXPECT().End(gomock.Any(), gomock.Any()).Return(calls.EndResult{})

	rr := s.post("/retell/webhook", map[string]any{"event": "call_ended", "call": map[string]any{"call_id": "c1"}})

	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "status", "received")
}

func (s *HandlerSuite) TestCallEndedReleasesClaimWhenNothingSaved() {
	s.dedupe.EXPECT().Claim(gomock.Any(), "call_ended:c1").Return(true, nil)
	s.calls.EXPECT().End(gomock.Any(), gomock.Any()).Return(calls.EndResult{
		Persist: persist.Result{Stage: persist.StageNotStarted, ThreadID: "call_c1", Message: "could not save caller record"},
	})
	s.dedupe.EXPECT().Release(gomock.Any(), "call_ended:c1").Return(nil)

	rr := s.post("/retell/webhook", map[string]any{"event": "call_ended", "call": map[string]any{"call_id": "c1", "from_number": "+14065551234"}})

	testutil.AssertStatusAndError(s.T(), rr, http.StatusServiceUnavailable, "service_unavailable")
}

func (s *HandlerSuite) TestCallEndedKeepsClaimAfterPartialSave() {
	s.dedupe.EXPECT().Claim(gomock.Any(), "call_ended:c1").Return(true, nil)
	s.calls.EXPECT().End(gomock.Any(), gomock.Any()).Return(calls.EndResult{
		Persist: persist.Result{Stage: persist.StageUserUpserted, ThreadID: "call_c1"},
	})

	rr := s.post("/retell/webhook", map[string]any{"event": "call_ended", "call": map[string]any{"call_id": "c1", "from_number": "+14065551234"}})

	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "status", "received")
}

func (s *HandlerSuite) TestCallEndedUnusablePhoneIsNotRetried() {
	s.dedupe.EXPECT().Claim(gomock.Any(), "call_ended:c1").Return(true, nil)
	s.calls.EXPECT().End(gomock.Any(), gomock.Any()).Return(calls.EndResult{
		Persist: persist.Result{Stage: persist.StageNotStarted, Message: "missing caller phone"},
	})

	rr := s.post("/retell/webhook", map[string]any{"event": "call_ended", "call": map[string]any{"call_id": "c1"}})

	testutil.AssertStatusOK(s.T(), rr)
}

func (s *HandlerSuite) TestCallEndedCarriesRequestContext() {
	now := time.Date(2026, 3, 2, 15, 4, 5, 0, time.UTC)
	s.dedupe.EXPECT().Claim(gomock.Any(), "call_ended:c9").Return(true, nil)
	s.calls.EXPECT().End(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ calls.EndRequest) calls.EndResult {
			s.Equal("req-1", requestcontext.RequestID(ctx))
			s.Equal("c9", requestcontext.CallID(ctx))
			s.Equal(now, requestcontext.Now(ctx))
			return calls.EndResult{}
		})

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/retell/webhook", map[string]any{
		"event": "call_ended", "call": map[string]any{"call_id": "c9"},
	})
	req = testutil.WithFixedTime(testutil.WithRequestID(req, "req-1"), now)

	testutil.AssertStatusOK(s.T(), testutil.DoRequest(s.mux, req))
}

func (s *HandlerSuite) TestCallAnalyzed() {
	ok := true
	s.calls.EXPECT().Analyzed(gomock.Any(), calls.Analysis{CallID: "c1", Summary: "Asked about mineral.", Sentiment: "Positive", Successful: &ok})

	rr := s.post("/retell/webhook", map[string]any{
		"event": "call_analyzed",
		"call": map[string]any{
			"call_id":       "c1",
			"call_analysis": map[string]any{"call_summary": "Asked about mineral.", "user_sentiment": "Positive", "call_successful": true},
		},
	})

	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "status", "received")
}

func (s *HandlerSuite) TestUnknownEventIgnored() {
	rr := s.post("/retell/webhook", map[string]any{"event": "transcript_updated", "call": map[string]any{"call_id": "c1"}})

	testutil.AssertStatusOK(s.T(), rr)
	resp := testutil.UnmarshalResponse[StatusResponse](s.T(), rr)
	s.Equal(StatusResponse{Status: "ignored", Event: "transcript_updated"}, *resp)
}

func (s *HandlerSuite) TestMalformedBody() {
	rr := testutil.DoRequest(s.mux, testutil.NewRequestWithBody(s.T(), http.MethodPost, "/retell/webhook", "{not json"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
}

func (s *HandlerSuite) TestLookupTown() {
	isabell := &tmodels.Specialist{FirstName: "Isabell", LastName: "Gilleard", Email: "isabell@example.com"}
	s.router.EXPECT().Resolve(gomock.Any(), "Darby").Return(territory.Resolution{
		Success: true, County: "Ravalli County", Territory: "Bitterroot", Contact: isabell, Message: "Isabell Gilleard covers Ravalli County.",
	})

	rr := s.post("/retell/functions/lookup_town", map[string]any{"args": map[string]any{"town_name": "Darby"}})

	out := result[LookupTownResult](s, rr)
	s.True(out.Success)
	s.Equal("Darby", out.Town)
	s.Equal("Ravalli County", out.County)
	s.Require().NotNil(out.Specialist)
	s.Equal("Isabell Gilleard", out.Specialist.FullName)
	s.Equal("Bitterroot", out.Specialist.Territory)
}

func (s *HandlerSuite) TestLookupTownFailureIsStillOK() {
	s.router.EXPECT().Resolve(gomock.Any(), "Nowhere").Return(territory.Resolution{Message: "I couldn't find Nowhere in our service area."})

	rr := s.post("/retell/functions/lookup_town", map[string]any{"arguments": map[string]any{"town": "Nowhere"}})

	out := result[LookupTownResult](s, rr)
	s.False(out.Success)
	s.Nil(out.Specialist)
	s.Contains(out.Message, "Nowhere")
}

func (s *HandlerSuite) TestFindSpecialistByCounty() {
	s.router.EXPECT().Resolve(gomock.Any(), "Ravalli").Return(territory.Resolution{
		Success: true, County: "Ravalli County", Territory: "Bitterroot",
		Contact: &tmodels.Specialist{FirstName: "Isabell", LastName: "Gilleard", Phone: "4065550100"},
	})

	out := result[FindSpecialistResult](s, s.post("/retell/functions/find_specialist", map[string]any{"args": map[string]any{"county": "Ravalli"}}))
	s.True(out.Found)
	s.Equal("Isabell Gilleard", out.SpecialistName)
	s.Equal("4065550100", out.SpecialistPhone)
}

func (s *HandlerSuite) TestFindSpecialistNeedsPlace() {
	out := result[FindSpecialistResult](s, s.post("/retell/functions/find_specialist", map[string]any{"args": map[string]any{}}))
	s.False(out.Found)
	s.Equal(msgNeedPlace, out.Message)
}

func (s *HandlerSuite) TestCallerHistoryFallsBackToCallNumber() {
	profile := &models.CallerProfile{PhoneKey: "14065551234", CallerName: "Guy Hanson", Summary: "Returning caller."}
	s.calls.EXPECT().Start(gomock.Any(), "+14065551234").Return(calls.StartResult{Profile: profile})

	out := result[map[string]any](s, s.post("/retell/functions/get_caller_history", map[string]any{
		"call": map[string]any{"from_number": "+14065551234"},
	}))
	s.Equal("Guy Hanson", out["caller_name"])
	s.Equal("+14065551234", out["caller_phone"])
}

func (s *HandlerSuite) TestCallerHistoryWithoutPhone() {
	s.calls.EXPECT().Start(gomock.Any(), "").Return(calls.StartResult{Profile: models.Unknown("")})

	out := result[map[string]any](s, s.post("/retell/functions/get_caller_history", map[string]any{}))
	s.Equal("No phone number provided.", out["summary"])
}

func (s *HandlerSuite) TestCreateLead() {
	s.leads.EXPECT().Capture(gomock.Any(), leads.CaptureRequest{
		Phone: "14065551234", Name: "Guy Hanson", City: "Darby", Interest: "mineral",
	}).Return(&lmodels.Lead{ID: uuid.New(), FirstName: "Guy", LastName: "Hanson", Phone: "+14065551234"}, nil)

	out := result[LeadResult](s, s.post("/retell/functions/create_lead", map[string]any{
		"call": map[string]any{"from_number": "+14065551234"},
		"args": map[string]any{"first_name": "Guy", "last_name": "Hanson", "city": "Darby", "interests": "mineral"},
	}))
	s.True(out.Success)
	s.NotEmpty(out.LeadID)
	s.True(strings.HasPrefix(out.Message, "Thank you, Guy."))
}

func (s *HandlerSuite) TestCreateLeadFailureStillReassures() {
	s.leads.EXPECT().Capture(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

	out := result[LeadResult](s, s.post("/retell/functions/create_lead", map[string]any{
		"args": map[string]any{"name": "Guy", "phone": "406-555-1234"},
	}))
	s.False(out.Success)
	s.Equal(msgLeadFallback, out.Message)
}

func (s *HandlerSuite) TestScheduleCallback() {
	s.leads.EXPECT().Capture(gomock.Any(), leads.CaptureRequest{
		Phone: "14065551234", Name: "Guy", Interest: "Callback: tomorrow morning - wants mineral pricing",
	}).Return(&lmodels.Lead{ID: uuid.New(), FirstName: "Guy", Phone: "+14065551234"}, nil)

	out := result[LeadResult](s, s.post("/retell/functions/schedule_callback", map[string]any{
		"args": map[string]any{"name": "Guy", "phone": "4065551234", "callback_time": "tomorrow morning", "notes": "wants mineral pricing"},
	}))
	s.True(out.Success)
	s.Contains(out.Message, "Perfect, Guy. I've scheduled a callback for tomorrow morning.")
}

func (s *HandlerSuite) TestTransferCall() {
	out := result[TransferResult](s, s.post("/retell/functions/transfer_call", map[string]any{
		"args": map[string]any{"specialist_phone": "(406) 555-0100", "specialist_name": "Isabell Gilleard"},
	}))
	s.True(out.CanTransfer)
	s.Equal("+14065550100", out.TransferNumber)
	s.Equal("One moment please, I'm transferring you to Isabell Gilleard now.", out.Message)

	out = result[TransferResult](s, s.post("/retell/functions/transfer_call", map[string]any{"args": map[string]any{}}))
	s.False(out.CanTransfer)
	s.Equal(msgNoTransfer, out.Message)
}

func (s *HandlerSuite) TestLookupStaff() {
	s.Run("single", func() {
		s.router.EXPECT().SearchStaff(gomock.Any(), "Isabell", staffSearchLimit).Return([]*tmodels.Specialist{
			{FirstName: "Isabell", LastName: "Gilleard", TerritoryName: "Bitterroot"},
		}, nil)
		out := result[StaffResult](s, s.post("/retell/functions/lookup_staff", map[string]any{"args": map[string]any{"name": "Isabell"}}))
		s.True(out.Found)
		s.Equal("Found Isabell Gilleard, covering Bitterroot Territory.", out.Message)
	})
	s.Run("multiple", func() {
		s.router.EXPECT().SearchStaff(gomock.Any(), "Jo", staffSearchLimit).Return([]*tmodels.Specialist{
			{FirstName: "Jo", LastName: "Ames"}, {FirstName: "Joe", LastName: "Bell"},
		}, nil)
		out := result[StaffResult](s, s.post("/retell/functions/lookup_staff", map[string]any{"args": map[string]any{"staff_name": "Jo"}}))
		s.True(out.MultipleMatches)
		s.Equal(2, out.Count)
		s.Contains(out.Message, "Jo Ames, Joe Bell")
	})
	s.Run("none", func() {
		s.router.EXPECT().SearchStaff(gomock.Any(), "Zed", staffSearchLimit).Return(nil, nil)
		out := result[StaffResult](s, s.post("/retell/functions/lookup_staff", map[string]any{"args": map[string]any{"name": "Zed"}}))
		s.False(out.Found)
		s.Contains(out.Message, "I don't have contact information for Zed")
	})
	s.Run("error", func() {
		s.router.EXPECT().SearchStaff(gomock.Any(), "Zed", staffSearchLimit).Return(nil, errors.New("db down"))
		out := result[StaffResult](s, s.post("/retell/functions/lookup_staff", map[string]any{"args": map[string]any{"name": "Zed"}}))
		s.Equal("I had trouble looking up that person.", out.Message)
	})
}

func (s *HandlerSuite) TestSignatureRequired() {
	h := New(s.calls, s.router, s.leads, testutil.DiscardLogger(), nil, WithWebhookSecret(testSecret))
	mux := chi.NewRouter()
	h.Register(mux)

	body := testutil.MustMarshal(s.T(), map[string]any{"event": "transcript_updated", "call": map[string]any{"call_id": "c1"}})

	s.Run("missing signature", func() {
		rr := testutil.DoRequest(mux, testutil.NewRequestWithBody(s.T(), http.MethodPost, "/retell/webhook", body))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	})
	s.Run("valid signature", func() {
		req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/retell/webhook", body)
		req.Header.Set(middleware.HeaderSignature, sign(testSecret, body))
		rr := testutil.DoRequest(mux, req)
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "status", "ignored")
	})
	s.Run("health is open", func() {
		rr := testutil.DoRequest(mux, testutil.NewRequest(s.T(), http.MethodGet, "/health"))
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONHasKey(s.T(), rr, "status")
	})
}

func sign(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}
