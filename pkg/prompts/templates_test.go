package prompts

import (
	"strings"
	"testing"

	"github.com/shouni/go-ehon-kit/pkg/domain"
)

func TestTextPromptBuilder_Build(t *testing.T) {
	builder, err := NewTextPromptBuilder()
	if err != nil {
		t.Fatalf("ビルダーの初期化に失敗したのだ: %v", err)
	}

	t.Run("新規物語モードは要件をすべて埋め込むのだ", func(t *testing.T) {
		data := StoryTemplateData{
			Language:        "Japanese",
			SceneCount:      4,
			StyleDescriptor: "soft watercolor",
			ModeInstruction: ModeInstruction(domain.ModeConclude),
		}

		got, err := builder.Build(ModeNewStory, data)
		if err != nil {
			t.Fatalf("Build失敗なのだ: %v", err)
		}

		for _, want := range []string{
			"exactly 4 short narrative paragraphs",
			"in Japanese",
			"soft watercolor",
			"satisfying conclusion",
			`"title"`,
		} {
			if !strings.Contains(got, want) {
				t.Errorf("プロンプトに %q が含まれていないのだ", want)
			}
		}
	})

	t.Run("続きモードは既存本文を含みタイトルを要求しないのだ", func(t *testing.T) {
		data := StoryTemplateData{
			Language:        "English",
			SceneCount:      2,
			StyleDescriptor: "crayon drawing",
			ModeInstruction: ModeInstruction(domain.ModeExtend),
			ExistingStory:   NumberStory([]string{"Once upon a time.", "The fox woke up."}),
		}

		got, err := builder.Build(ModeContinuation, data)
		if err != nil {
			t.Fatalf("Build失敗なのだ: %v", err)
		}

		if !strings.Contains(got, "1. Once upon a time.") || !strings.Contains(got, "2. The fox woke up.") {
			t.Error("既存本文が番号付きで埋め込まれていないのだ")
		}
		if !strings.Contains(got, "Do not include a title.") {
			t.Error("タイトル不要の指示が抜けているのだ")
		}
		if !strings.Contains(got, "cliffhanger") {
			t.Error("extend モードの締め方指示が反映されていないのだ")
		}
	})

	t.Run("不明なモードはエラーなのだ", func(t *testing.T) {
		if _, err := builder.Build("haiku", StoryTemplateData{}); err == nil {
			t.Error("不明モードでエラーが返らないのだ")
		}
	})
}

func TestNumberStory(t *testing.T) {
	got := NumberStory([]string{"はじまり。", "つづき。"})
	want := "1. はじまり。\n2. つづき。"
	if got != want {
		t.Errorf("番号付けが違うのだ。期待: %q, 実際: %q", want, got)
	}
}

func TestModeInstruction(t *testing.T) {
	conclude := ModeInstruction(domain.ModeConclude)
	extend := ModeInstruction(domain.ModeExtend)
	unknown := ModeInstruction(domain.StoryMode("mystery"))

	if conclude == extend {
		t.Error("conclude と extend の指示文が同じなのだ")
	}
	if unknown != conclude {
		t.Error("未知モードが conclude に倒れていないのだ")
	}
}
