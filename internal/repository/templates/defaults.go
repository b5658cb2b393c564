package templates

// fallbackTemplates is the compiled-in template set used when the store has
// no version of a name. Placeholder names deliberately vary between templates
// (historical drift); the assembler resolves them through its alias table.
var fallbackTemplates = map[string]string{
	"retrieval_query": `You are helping retrieve community discussions relevant to a marketing campaign.

Campaign description:
{campaign_text}

Topics: {topics}

Company context:
{company_positioning}

Rewrite the campaign description as a short retrieval query (one line per
distinct angle) that would surface forum threads, video transcripts and
podcast episodes where the target buyers discuss these problems in their
own words. Output only the query lines, no commentary.`,

	"rerank": `You are filtering community discussion snippets for a marketing campaign.

Retrieval query: {query}
Company: {company_name} ({company_domain})
Competitors: {competitors}

Candidate snippets (JSON, each with a numeric "id"):
{documents}

Return a JSON array with the ids of the snippets genuinely useful for
grounding marketing copy for this campaign, best first. Return only JSON.`,

	"rerank_competitor": `You are filtering community discussion snippets for a competitive campaign.

Retrieval query: {query}
Company: {company_name} ({company_domain})
Target competitor: {target_competitor}
Target audience: {icp}

Candidate snippets (JSON, each with a numeric "id"):
{documents}

Return a JSON array with the ids of snippets where buyers compare, complain
about or consider switching from the target competitor. Return only JSON.`,

	"asset_email": `Write a marketing email.

Target audience: {target_audience}
Topics: {topics}

Campaign brief:
{marketing_text}

Company positioning:
{company_positioning}

Ground the email in these community discussions — reuse the buyers' own
phrasing where it is sharper than marketing language:
{documents}

Keep it under 200 words, one clear call to action, no subject-line options.`,

	"asset_one_pager": `Write a one-pager.

Audience / ICP: {icp}
Topics: {background}

Campaign context:
{campaign_context}

Company positioning:
{company_positioning}
Competitors to position against: {competitors}

Community evidence to draw from:
{documents}

Structure: headline, three pain-driven sections, proof points, closing CTA.`,

	"asset_blog_post": `Write a blog post.

Target audience: {icp}
Topics: {topics}

Campaign context:
{context}

Company positioning:
{company_positioning}

Community discussions for grounding (quote or paraphrase, cite the thread
title inline):
{documents}

800-1200 words, practitioner tone, no bullet-point listicles.`,
}
