package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionValidate(t *testing.T) {
	tests := []struct {
		name    string
		q       Question
		wantErr bool
	}{
		{
			name: "valid",
			q:    Question{Question: "Capital of France?", Answers: []string{"Paris", "Rome", "Oslo", "Bern"}, CorrectAnswer: 0},
		},
		{
			name:    "blank prompt",
			q:       Question{Question: " ", Answers: []string{"a", "b", "c", "d"}},
			wantErr: true,
		},
		{
			name:    "three answers",
			q:       Question{Question: "q", Answers: []string{"a", "b", "c"}},
			wantErr: true,
		},
		{
			name:    "correct answer out of range",
			q:       Question{Question: "q", Answers: []string{"a", "b", "c", "d"}, CorrectAnswer: 4},
			wantErr: true,
		},
		{
			name:    "negative correct answer",
			q:       Question{Question: "q", Answers: []string{"a", "b", "c", "d"}, CorrectAnswer: -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.q.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedQuestion)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestQuestionSetValidate(t *testing.T) {
	assert.ErrorIs(t, QuestionSet{}.Validate(), ErrMalformedQuestion)

	set := QuestionSet{
		{Question: "ok", Answers: []string{"a", "b", "c", "d"}},
		{Question: "broken", Answers: []string{"a"}},
	}
	assert.ErrorIs(t, set.Validate(), ErrMalformedQuestion)
}

func TestNormalizeAccountName(t *testing.T) {
	got, err := NormalizeAccountName("  Alice\t")
	require.NoError(t, err)
	assert.Equal(t, "Alice", got)

	_, err = NormalizeAccountName(" \n ")
	assert.ErrorIs(t, err, ErrInvalidAccountName)
}

func TestIsDomainError(t *testing.T) {
	assert.True(t, IsDomainError(ErrUserNotFound))
	assert.True(t, IsDomainError(ErrNotJoined))
	assert.True(t, IsDomainError(ErrConflict))
	assert.False(t, IsDomainError(ErrStorage))
	assert.False(t, IsDomainError(nil))
}
