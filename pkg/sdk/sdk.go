package sdk

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
)

const CTJSON string = "application/json"

type PageMetadata struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

type SDK interface {
	// GetParticipant gets a participant by id.
	//
	// example:
	//  p, _ := sdk.GetParticipant("b1d10738-c5d7-4ff1-8f4d-b9328ce6f040")
	//  fmt.Println(p)
	GetParticipant(id string) (Participant, error)

	// ListParticipants lists registered participants.
	//
	// example:
	//  page, _ := sdk.ListParticipants(0, 10)
	//  fmt.Println(page)
	ListParticipants(offset uint64, limit uint64) (ParticipantPage, error)

	// DeleteParticipant removes a participant from the registry.
	//
	// example:
	//  _ = sdk.DeleteParticipant("b1d10738-c5d7-4ff1-8f4d-b9328ce6f040")
	DeleteParticipant(id string) error

	// GetModel gets a global model version.
	//
	// example:
	//  model, _ := sdk.GetModel(3)
	//  fmt.Println(model)
	GetModel(version int) (Model, error)

	// LatestModel gets the newest global model version.
	//
	// example:
	//  model, _ := sdk.LatestModel()
	//  fmt.Println(model)
	LatestModel() (Model, error)

	// ListModels lists global model versions.
	//
	// example:
	//  page, _ := sdk.ListModels(0, 10)
	//  fmt.Println(page)
	ListModels(offset uint64, limit uint64) (ModelPage, error)

	// RunSession runs a federated training session and returns its log.
	//
	// example:
	//  session, _ := sdk.RunSession(sdk.SessionSpec{Rounds: 10})
	//  fmt.Println(session)
	RunSession(spec SessionSpec) (Session, error)

	// GetSession gets a session by id.
	//
	// example:
	//  session, _ := sdk.GetSession("b1d10738-c5d7-4ff1-8f4d-b9328ce6f040")
	//  fmt.Println(session)
	GetSession(id string) (Session, error)

	// ListSessions lists completed sessions.
	//
	// example:
	//  page, _ := sdk.ListSessions(0, 10)
	//  fmt.Println(page)
	ListSessions(offset uint64, limit uint64) (SessionPage, error)

	// CheckDrift runs a drift check and returns the decision.
	//
	// example:
	//  decision, _ := sdk.CheckDrift(sdk.DriftCheckSpec{NodeID: "hospital_01"})
	//  fmt.Println(decision)
	CheckDrift(spec DriftCheckSpec) (Decision, error)

	// ListDecisions lists recorded retraining decisions.
	//
	// example:
	//  page, _ := sdk.ListDecisions(0, 10)
	//  fmt.Println(page)
	ListDecisions(offset uint64, limit uint64) (DecisionPage, error)
}

type fedSDK struct {
	managerURL string
	client     *http.Client
}

type Config struct {
	ManagerURL      string
	TLSVerification bool
}

func NewSDK(cfg Config) SDK {
	return &fedSDK{
		managerURL: cfg.ManagerURL,
		client: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: !cfg.TLSVerification,
				},
			},
		},
	}
}

func (sdk *fedSDK) processRequest(method, reqURL string, data []byte, expectedRespCode int) ([]byte, error) {
	req, err := http.NewRequest(method, reqURL, bytes.NewReader(data))
	if err != nil {
		return []byte{}, err
	}

	req.Header.Add("Content-Type", CTJSON)

	resp, err := sdk.client.Do(req)
	if err != nil {
		return []byte{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return []byte{}, err
	}

	if resp.StatusCode != expectedRespCode {
		return []byte{}, fmt.Errorf("unexpected response code: %d", resp.StatusCode)
	}

	return body, nil
}
