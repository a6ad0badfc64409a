package texsrc

import (
	"reflect"
	"testing"
)

func TestCitedKeys(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			"single",
			`as shown in \cite{He2016}.`,
			[]string{"He2016"},
		},
		{
			"comma separated",
			`\cite{He2016, Vaswani2017,Krizhevsky2012}`,
			[]string{"He2016", "Vaswani2017", "Krizhevsky2012"},
		},
		{
			"variants",
			`\citet{a} and \citep{b} and \citet*{c} and \citeauthor{d} and \parencite{e}`,
			[]string{"a", "b", "c", "d", "e"},
		},
		{
			"optional arguments",
			`\citep[see][p. 42]{He2016}`,
			[]string{"He2016"},
		},
		{
			"first use order with dedup",
			`\cite{b} then \cite{a} then \cite{b,c}`,
			[]string{"b", "a", "c"},
		},
		{
			"commented citations ignored",
			"\\cite{live}\n% \\cite{dead}\ntext % also \\cite{dead2}\n",
			[]string{"live"},
		},
		{
			"no citations",
			`plain text without commands`,
			nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CitedKeys(tt.text); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CitedKeys() = %v, want %v", got, tt.want)
			}
		})
	}
}
