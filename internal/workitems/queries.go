package workitems

// GraphQL documents. workItemFields is shared by every query and mutation
// that returns a work item; widget sub-selections cover exactly the
// variants the normalizer decodes.
const workItemFields = `
  id
  iid
  title
  state
  createdAt
  updatedAt
  closedAt
  webUrl
  reference(full: true)
  workItemType {
    id
    name
  }
  author {
    id
    username
    name
  }
  project {
    fullPath
  }
  namespace {
    fullPath
  }
  widgets {
    type
    ... on WorkItemWidgetAssignees {
      assignees {
        nodes {
          id
          username
          name
        }
      }
    }
    ... on WorkItemWidgetHierarchy {
      parent {
        id
        iid
        title
        state
        webUrl
      }
      children {
        nodes {
          id
          iid
          title
          state
          webUrl
        }
      }
    }
    ... on WorkItemWidgetLabels {
      labels {
        nodes {
          id
          title
          color
        }
      }
    }
    ... on WorkItemWidgetMilestone {
      milestone {
        id
        title
      }
    }
    ... on WorkItemWidgetIteration {
      iteration {
        id
        title
      }
    }
    ... on WorkItemWidgetStartAndDueDate {
      startDate
      dueDate
    }
    ... on WorkItemWidgetDescription {
      description
      descriptionHtml
    }
    ... on WorkItemWidgetProgress {
      progress
    }
    ... on WorkItemWidgetHealthStatus {
      healthStatus
    }
    ... on WorkItemWidgetWeight {
      weight
    }
  }
`

const queryAnyProject = `
query trellisAnyProject {
  currentUser {
    projectMemberships(first: 1) {
      nodes {
        project {
          fullPath
        }
      }
    }
  }
}
`

const queryWorkItemTypes = `
query trellisWorkItemTypes($fullPath: ID!) {
  project(fullPath: $fullPath) {
    workItemTypes {
      nodes {
        id
        name
      }
    }
  }
}
`

const queryWorkItemByID = `
query trellisWorkItem($id: WorkItemID!) {
  workItem(id: $id) {` + workItemFields + `}
}
`

const queryWorkItemByIID = `
query trellisWorkItemByIID($fullPath: ID!, $iid: String!) {
  project(fullPath: $fullPath) {
    workItems(iid: $iid) {
      nodes {` + workItemFields + `}
    }
  }
}
`

const queryProjectWorkItems = `
query trellisProjectWorkItems($fullPath: ID!, $types: [IssueType!], $state: IssuableState, $search: String, $first: Int, $after: String) {
  project(fullPath: $fullPath) {
    workItems(types: $types, state: $state, search: $search, first: $first, after: $after) {
      nodes {` + workItemFields + `}
      pageInfo {
        endCursor
        hasNextPage
      }
    }
  }
}
`

const queryNamespaceWorkItems = `
query trellisNamespaceWorkItems($fullPath: ID!, $types: [IssueType!], $state: IssuableState, $search: String, $first: Int, $after: String) {
  namespace(fullPath: $fullPath) {
    workItems(types: $types, state: $state, search: $search, first: $first, after: $after) {
      nodes {` + workItemFields + `}
      pageInfo {
        endCursor
        hasNextPage
      }
    }
  }
}
`

const mutationWorkItemCreate = `
mutation trellisWorkItemCreate($input: WorkItemCreateInput!) {
  workItemCreate(input: $input) {
    workItem {` + workItemFields + `}
    errors
  }
}
`

const mutationWorkItemUpdate = `
mutation trellisWorkItemUpdate($input: WorkItemUpdateInput!) {
  workItemUpdate(input: $input) {
    workItem {` + workItemFields + `}
    errors
  }
}
`

const mutationWorkItemDelete = `
mutation trellisWorkItemDelete($input: WorkItemDeleteInput!) {
  workItemDelete(input: $input) {
    project {
      id
    }
    errors
  }
}
`
