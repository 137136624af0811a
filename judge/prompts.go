package judge

// 判断任务的提示词模板。所有模板都要求 JSON 输出，
// schema 校验在 judge.go 中执行。

const routePrompt = `You are a router that picks the best retrieval strategy for a user question against a knowledge base built from legal and regulatory documents (a knowledge graph plus a vector index).

Strategies:
- structured: the question names concrete entities, relations, counts, or dates suited to a graph traversal (e.g. "Who signed X?", "How many rulings in 2024?")
- semantic: the question is open-ended or contextual and needs similarity search over document text
- hybrid: both signals are present
- web_search: the question is about current events or clearly outside the corpus coverage

Also decide whether the question is compound: it bundles several independent questions whose answers could be produced separately.

Question: %s

Respond in JSON only:
{"route": "structured|semantic|hybrid|web_search", "compound": true|false}`

const decomposePrompt = `Split the following compound question into at most %d independent, self-contained sub-questions. Each sub-question must be answerable on its own, without referring to the others or to the original question. Preserve the original ordering of topics.

Question: %s

Respond in JSON only:
{"sub_questions": ["...", "..."]}`

const gradeDocumentPrompt = `You are a grader judging whether a retrieved document is relevant to a user question. The goal is to discard erroneous retrievals. If the document contains keywords or semantic meaning related to the question, consider it relevant.

Retrieved document:
%s

User question: %s

Respond in JSON only:
{"relevant": "yes"} or {"relevant": "no"}`

const rewritePrompt = `You are a question rewriter that converts an input question into a better version optimized for retrieval. Remove ambiguous pronouns, expand abbreviations, and add synonyms for key terms. Reason about the underlying semantic intent.

Original question: %s
Current query (already tried, found nothing relevant): %s

Respond in JSON only:
{"query": "the improved query"}`

const gradeGroundedPrompt = `You are a grader checking whether an answer is grounded in the supplied context documents. "yes" means every factual claim in the answer is supported by the context, "no" means the answer contains unsupported claims.

Context documents:
%s

Generated answer:
%s

Respond in JSON only:
{"grounded": "yes"} or {"grounded": "no"}`

const gradeAddressesPrompt = `You are a grader checking whether an answer actually resolves the user question. "yes" means the answer addresses the question, "no" means it does not.

User question: %s

Generated answer:
%s

Respond in JSON only:
{"addresses": "yes"} or {"addresses": "no"}`
