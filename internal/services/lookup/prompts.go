package lookup

import (
	"fmt"
	"strings"
)

// SystemPrompt frames the model as a Japanese financial research assistant.
const SystemPrompt = "あなたは金融情報を調査するアシスタントです。信頼できる日本語ソースを検索し、最新の決算予定と権利付き最終日を整理して回答してください。"

const formatRules = `先頭4つの要素は、必ず「2025年8月12日（予定｜https://example.com/ir1）」または「2025年8月12日（前回｜https://example.com/ir2）」のように、
「日付（予定または前回｜出典URL）」という形式で出力してください。URL の前後に余分な空白を入れないでください。
最後の要素（権利付き最終日）も同様に、「2026年3月27日（予定｜https://example.com/ir5）」または「2026年3月27日（前回｜https://example.com/ir6）」のように、
「日付（予定または前回｜出典URL）」という形式で出力してください。`

const exampleLine = "2025年8月12日（前回｜https://example.com/ir1）,2025年11月11日（前回｜https://example.com/ir2）,2026年2月4日（予定｜https://example.com/ir3）,2026年5月14日（予定｜https://example.com/ir4）,2026年3月27日（予定｜https://example.com/ir5）"

// SingleCodePrompt asks for the five-field strict payload for one code.
func SingleCodePrompt(code string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "日本株 %s について、最新または最も確からしい決算発表予定と権利付き最終日を信頼できる日本語ソースや過去実績から推定して調べてください。\n", code)
	b.WriteString("各四半期については、次回の決算発表予定日が分かる場合はその日付を、分からない場合は前回の決算発表日を用いてください。\n")
	b.WriteString("回答は「第1四半期・第2四半期・第3四半期・通期・権利付き最終日」を順番に、半角カンマ区切りで 5 個の要素のみを1行で返してください。\n")
	b.WriteString(formatRules)
	b.WriteString("\n例: ")
	b.WriteString(exampleLine)
	b.WriteString("\n情報が全く得られない場合のみ「情報未取得」と 1 語だけ出力してください。それ以外の表・JSON・説明文・改行を一切出力しないでください。")
	return b.String()
}

// BatchPrompt asks for one "code: payload" line per code.
func BatchPrompt(codes []string) string {
	var b strings.Builder
	b.WriteString("以下の日本株コードそれぞれについて、最新または最も確からしい決算発表予定と権利付き最終日を信頼できる日本語ソースや過去実績から推定して調べてください。\n")
	b.WriteString("各コードの回答は「第1四半期・第2四半期・第3四半期・通期・権利付き最終日」の順に、半角カンマ区切りで 5 個の要素だけを 1 行で出力してください。\n")
	b.WriteString(formatRules)
	b.WriteString("\n情報が全く得られない場合のみ「情報未取得」と記載してください。それ以外の表・JSON・説明文・改行を一切出力しないでください。\n\n")
	b.WriteString("出力形式: 1 行につき 1 銘柄のみ\n")
	fmt.Fprintf(&b, "7203: %s\n", exampleLine)
	b.WriteString("6758: ...\n\n")
	b.WriteString("対象コード:\n")
	for _, code := range codes {
		fmt.Fprintf(&b, "- %s\n", code)
	}
	return strings.TrimRight(b.String(), "\n")
}
