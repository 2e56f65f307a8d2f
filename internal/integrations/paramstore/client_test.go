package paramstore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/require"
)

// fakeAPI is a simple fake implementing ssmAPI for tests.
type fakeAPI struct {
	getOut     *ssm.GetParameterOutput
	getErr     error
	params     map[string]string
	batchErr   error
	batchCalls [][]string
}

func (f *fakeAPI) GetParameter(_ context.Context, _ *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	return f.getOut, f.getErr
}

func (f *fakeAPI) GetParameters(_ context.Context, in *ssm.GetParametersInput, _ ...func(*ssm.Options)) (*ssm.GetParametersOutput, error) {
	f.batchCalls = append(f.batchCalls, in.Names)
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	out := &ssm.GetParametersOutput{}
	for _, n := range in.Names {
		v, ok := f.params[n]
		if !ok {
			out.InvalidParameters = append(out.InvalidParameters, n)
			continue
		}
		out.Parameters = append(out.Parameters, types.Parameter{Name: strPtr(n), Value: strPtr(v)})
	}
	return out, nil
}

func strPtr(s string) *string { return &s }

func TestGetParameter_HappyPath(t *testing.T) {
	api := &fakeAPI{getOut: &ssm.GetParameterOutput{Parameter: &types.Parameter{
		Name: strPtr("p"), Value: strPtr(`{"k":"v"}`),
	}}}
	client, err := New(api)
	require.NoError(t, err)
	v, err := client.GetParameter(context.Background(), "p")
	require.NoError(t, err)
	require.Equal(t, `{"k":"v"}`, v)
}

func TestGetParameter_HappyPath_SecureString(t *testing.T) {
	typeStr := "SecureString"
	api := &fakeAPI{getOut: &ssm.GetParameterOutput{Parameter: &types.Parameter{
		Name: strPtr("p"), Value: strPtr(`{"k":"v"}`), Type: types.ParameterType(typeStr),
	}}}
	client, err := New(api)
	require.NoError(t, err)
	v, err := client.GetParameter(context.Background(), "p")
	require.NoError(t, err)
	require.Equal(t, `{"k":"v"}`, v)
}

func TestGetParameter_MissingValue(t *testing.T) {
	api := &fakeAPI{getOut: &ssm.GetParameterOutput{Parameter: &types.Parameter{Name: strPtr("p"), Value: nil}}}
	client, err := New(api)
	require.NoError(t, err)
	_, err = client.GetParameter(context.Background(), "p")
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing value")
}

func TestGetParameter_ApiError(t *testing.T) {
	api := &fakeAPI{getErr: errors.New("boom")}
	client, err := New(api)
	require.NoError(t, err)
	_, err = client.GetParameter(context.Background(), "p")
	require.Error(t, err)
	require.ErrorContains(t, err, "boom")
}

func TestGetParameter_ClientNotInitialized(t *testing.T) {
	_, err := (&Client{}).GetParameter(context.Background(), "p")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not initialized")
}

func TestGetParameter_EmptyName(t *testing.T) {
	api := &fakeAPI{}
	client, err := New(api)
	require.NoError(t, err)
	_, err = client.GetParameter(context.Background(), "  ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "required")
}

func TestNew_NilAPI(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "must not be nil")
}

func TestGetParameters_HappyPath(t *testing.T) {
	api := &fakeAPI{params: map[string]string{
		"/app/assistant/system_prompt": "Be brief.",
		"/app/config/openai_model":     "gpt-4o-mini",
	}}
	client, err := New(api)
	require.NoError(t, err)

	vals, err := client.GetParameters(context.Background(), "/app/assistant/system_prompt", " /app/config/openai_model ")
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"/app/assistant/system_prompt": "Be brief.",
		"/app/config/openai_model":     "gpt-4o-mini",
	}, vals)
	require.Len(t, api.batchCalls, 1)
}

func TestGetParameters_Batches(t *testing.T) {
	api := &fakeAPI{params: map[string]string{}}
	var names []string
	for i := 0; i < 23; i++ {
		n := fmt.Sprintf("/app/p%d", i)
		api.params[n] = fmt.Sprint(i)
		names = append(names, n)
	}
	client, err := New(api)
	require.NoError(t, err)

	vals, err := client.GetParameters(context.Background(), names...)
	require.NoError(t, err)
	require.Len(t, vals, 23)
	require.Len(t, api.batchCalls, 3)
	require.Len(t, api.batchCalls[2], 3)
	require.Equal(t, "22", vals["/app/p22"])
}

func TestGetParameters_InvalidParameters(t *testing.T) {
	api := &fakeAPI{params: map[string]string{"/app/a": "1"}}
	client, err := New(api)
	require.NoError(t, err)

	_, err = client.GetParameters(context.Background(), "/app/a", "/app/missing")
	require.Error(t, err)
	require.Contains(t, err.Error(), "/app/missing")
}

func TestGetParameters_Errors(t *testing.T) {
	client, err := New(&fakeAPI{batchErr: errors.New("throttled")})
	require.NoError(t, err)
	_, err = client.GetParameters(context.Background(), "/app/a")
	require.ErrorContains(t, err, "throttled")

	_, err = client.GetParameters(context.Background(), "/app/a", " ")
	require.ErrorContains(t, err, "required")

	_, err = (&Client{}).GetParameters(context.Background(), "/app/a")
	require.ErrorContains(t, err, "not initialized")
}
